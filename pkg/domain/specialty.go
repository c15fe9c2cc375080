package domain

import "strings"

type Specialty string

const (
	SpecialtyPredial     Specialty = "predial"
	SpecialtyNotarial    Specialty = "notarial"
	SpecialtySucesoral   Specialty = "sucesoral"
	SpecialtyTributario  Specialty = "tributario"
	SpecialtyContractual Specialty = "contractual"
	SpecialtyLegal       Specialty = "legal"
	SpecialtyContable    Specialty = "contable"
)

type SpecialtyInfo struct {
	ID   Specialty `json:"id"`
	Name string    `json:"name"`
}

// Specialties is the catalog in display order.
var Specialties = []SpecialtyInfo{
	{ID: SpecialtyPredial, Name: "Predial"},
	{ID: SpecialtyNotarial, Name: "Notarial"},
	{ID: SpecialtySucesoral, Name: "Sucesoral"},
	{ID: SpecialtyTributario, Name: "Tributario"},
	{ID: SpecialtyContractual, Name: "Contractual"},
	{ID: SpecialtyLegal, Name: "Legal General"},
	{ID: SpecialtyContable, Name: "Contable"},
}

func (s Specialty) Valid() bool {
	for _, info := range Specialties {
		if info.ID == s {
			return true
		}
	}
	return false
}

type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

func (t Tier) Valid() bool { return t == TierFree || t == TierPaid }

// MaxSpecialties is the selection capacity of the tier.
func (t Tier) MaxSpecialties() int {
	if t == TierPaid {
		return 2
	}
	return 1
}

// Selection is an ordered set of specialties bounded by the tier capacity.
// When full, adding a specialty evicts the oldest one, so a free selection
// behaves as last-one-wins and a paid one as a FIFO of two.
type Selection struct {
	tier  Tier
	items []Specialty
}

func NewSelection(tier Tier) *Selection {
	if !tier.Valid() {
		tier = TierFree
	}
	return &Selection{tier: tier}
}

func (s *Selection) Tier() Tier { return s.tier }

func (s *Selection) Len() int { return len(s.items) }

func (s *Selection) Items() []Specialty {
	out := make([]Specialty, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Contains(sp Specialty) bool {
	return s.indexOf(sp) >= 0
}

// Toggle deselects sp when selected, otherwise selects it. It returns the
// specialty evicted to make room, if any.
func (s *Selection) Toggle(sp Specialty) (evicted Specialty, ok bool) {
	if i := s.indexOf(sp); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		return "", false
	}
	if len(s.items) >= s.tier.MaxSpecialties() {
		evicted, ok = s.items[0], true
		s.items = s.items[1:]
	}
	s.items = append(s.items, sp)
	return evicted, ok
}

// SetTier switches the tier. Shrinking keeps the first-selected specialties.
func (s *Selection) SetTier(t Tier) {
	if !t.Valid() {
		return
	}
	s.tier = t
	if limit := t.MaxSpecialties(); len(s.items) > limit {
		s.items = s.items[:limit]
	}
}

func (s *Selection) Clear() { s.items = nil }

func (s *Selection) indexOf(sp Specialty) int {
	for i, it := range s.items {
		if it == sp {
			return i
		}
	}
	return -1
}

// ValidateConsultation checks a submission before any side effect.
func ValidateConsultation(tier Tier, specialties []Specialty, question string) error {
	fe := FieldErrors{}
	if !tier.Valid() {
		fe.Add("tier", "must be free or paid")
	}
	switch {
	case len(specialties) == 0:
		fe.Add("specialties", "select at least one specialty")
	case tier.Valid() && len(specialties) > tier.MaxSpecialties():
		if tier == TierFree {
			fe.Add("specialties", "a free consultation covers exactly one specialty")
		} else {
			fe.Add("specialties", "a paid consultation covers at most two specialties")
		}
	}
	seen := map[Specialty]bool{}
	for _, sp := range specialties {
		if !sp.Valid() {
			fe.Add("specialties", "unknown specialty "+string(sp))
		}
		if seen[sp] {
			fe.Add("specialties", "duplicate specialty "+string(sp))
		}
		seen[sp] = true
	}
	if strings.TrimSpace(question) == "" {
		fe.Add("question", "question is required")
	}
	return fe.Err()
}
