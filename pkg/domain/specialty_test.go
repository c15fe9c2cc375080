package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_FreeTierLastOneWins(t *testing.T) {
	sel := NewSelection(TierPaid)
	sel.Toggle(SpecialtyPredial)
	sel.Toggle(SpecialtyNotarial)
	sel.SetTier(TierFree)

	evicted, ok := sel.Toggle(SpecialtyTributario)

	assert.True(t, ok)
	assert.Equal(t, SpecialtyPredial, evicted)
	assert.Equal(t, []Specialty{SpecialtyTributario}, sel.Items())
}

func TestSelection_FreeTierReplacesSingle(t *testing.T) {
	sel := NewSelection(TierFree)
	sel.Toggle(SpecialtyPredial)
	sel.Toggle(SpecialtyContable)

	assert.Equal(t, []Specialty{SpecialtyContable}, sel.Items())
}

func TestSelection_PaidTierEvictsOldest(t *testing.T) {
	sel := NewSelection(TierPaid)
	sel.Toggle(SpecialtyPredial)
	sel.Toggle(SpecialtyNotarial)

	evicted, ok := sel.Toggle(SpecialtySucesoral)

	require.True(t, ok)
	assert.Equal(t, SpecialtyPredial, evicted)
	assert.Equal(t, []Specialty{SpecialtyNotarial, SpecialtySucesoral}, sel.Items())
}

func TestSelection_ToggleDeselects(t *testing.T) {
	sel := NewSelection(TierPaid)
	sel.Toggle(SpecialtyPredial)
	sel.Toggle(SpecialtyNotarial)

	_, ok := sel.Toggle(SpecialtyPredial)

	assert.False(t, ok)
	assert.Equal(t, []Specialty{SpecialtyNotarial}, sel.Items())
	assert.False(t, sel.Contains(SpecialtyPredial))
}

func TestSelection_SwitchToFreeKeepsFirstSelected(t *testing.T) {
	sel := NewSelection(TierPaid)
	sel.Toggle(SpecialtyLegal)
	sel.Toggle(SpecialtyContractual)

	sel.SetTier(TierFree)

	assert.Equal(t, TierFree, sel.Tier())
	assert.Equal(t, []Specialty{SpecialtyLegal}, sel.Items())
}

func TestSelection_ItemsIsACopy(t *testing.T) {
	sel := NewSelection(TierFree)
	sel.Toggle(SpecialtyLegal)
	items := sel.Items()
	items[0] = SpecialtyContable

	assert.Equal(t, []Specialty{SpecialtyLegal}, sel.Items())
}

func TestValidateConsultation(t *testing.T) {
	cases := []struct {
		name        string
		tier        Tier
		specialties []Specialty
		question    string
		field       string
	}{
		{"free one specialty", TierFree, []Specialty{SpecialtyPredial}, "¿Cómo pago el predial?", ""},
		{"paid two specialties", TierPaid, []Specialty{SpecialtyPredial, SpecialtyNotarial}, "Herencia de un inmueble", ""},
		{"free two specialties", TierFree, []Specialty{SpecialtyPredial, SpecialtyNotarial}, "x", "specialties"},
		{"paid three specialties", TierPaid, []Specialty{SpecialtyPredial, SpecialtyNotarial, SpecialtyLegal}, "x", "specialties"},
		{"no specialties", TierPaid, nil, "x", "specialties"},
		{"unknown specialty", TierFree, []Specialty{"penal"}, "x", "specialties"},
		{"duplicate", TierPaid, []Specialty{SpecialtyLegal, SpecialtyLegal}, "x", "specialties"},
		{"blank question free", TierFree, []Specialty{SpecialtyLegal}, "   ", "question"},
		{"blank question paid", TierPaid, []Specialty{SpecialtyLegal}, "", "question"},
		{"bad tier", Tier("premium"), []Specialty{SpecialtyLegal}, "x", "tier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConsultation(tc.tier, tc.specialties, tc.question)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tc.field)
		})
	}
}
