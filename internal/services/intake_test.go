package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/models"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/pkg/domain"
)

func countConsultations(t *testing.T, env *testEnv) int {
	t.Helper()
	all, err := env.store.ListConsultations(context.Background(), store.ConsultationFilter{})
	require.NoError(t, err)
	return len(all)
}

func TestSubmitFreeConsultation(t *testing.T) {
	env := newTestEnv(t)
	p := env.principal(t, "ana", "client")

	res, err := env.intake.Submit(context.Background(), p, SubmitConsultationInput{
		Tier:        domain.TierFree,
		Specialties: []domain.Specialty{domain.SpecialtyPredial},
		Question:    "¿Cómo pago el predial atrasado?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationPending, res.Consultation.Status)
	assert.Contains(t, res.Message, "15 minutos")
	assert.Empty(t, res.Next)
	assert.Equal(t, []string{events.KeyConsultationSubmitted}, env.events.Keys())
}

func TestSubmitPaidConsultationWaitsForPayment(t *testing.T) {
	env := newTestEnv(t)
	p := env.principal(t, "ana", "client")

	res, err := env.intake.Submit(context.Background(), p, SubmitConsultationInput{
		Tier:        domain.TierPaid,
		Specialties: []domain.Specialty{domain.SpecialtyNotarial, domain.SpecialtyTributario},
		Question:    "Necesito revisar una escritura",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationAwaitingPayment, res.Consultation.Status)
	assert.Equal(t, "/payment", res.Next)
	assert.Empty(t, env.events.Keys())

	list, err := env.intake.List(context.Background(), p, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := env.intake.Get(context.Background(), p, res.Consultation.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, res.Consultation.ID, got.ID)
}

func TestSubmitRejectsBlankQuestionWithoutSideEffects(t *testing.T) {
	for _, tier := range []domain.Tier{domain.TierFree, domain.TierPaid} {
		t.Run(string(tier), func(t *testing.T) {
			env := newTestEnv(t)
			p := env.principal(t, "ana", "client")

			_, err := env.intake.Submit(context.Background(), p, SubmitConsultationInput{
				Tier:        tier,
				Specialties: []domain.Specialty{domain.SpecialtyLegal},
				Question:    "   ",
			})
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
			assert.Contains(t, appErr.Details.(map[string]string), "question")
			assert.Zero(t, countConsultations(t, env))
			assert.Empty(t, env.events.Keys())
		})
	}
}

func TestSubmitRejectsTierBounds(t *testing.T) {
	env := newTestEnv(t)
	p := env.principal(t, "ana", "client")
	ctx := context.Background()

	_, err := env.intake.Submit(ctx, p, SubmitConsultationInput{
		Tier:        domain.TierFree,
		Specialties: []domain.Specialty{domain.SpecialtyPredial, domain.SpecialtyLegal},
		Question:    "q",
	})
	assert.ErrorIs(t, err, apperrors.ValidationError(nil))

	_, err = env.intake.Submit(ctx, p, SubmitConsultationInput{
		Tier:        domain.TierPaid,
		Specialties: []domain.Specialty{domain.SpecialtyPredial, domain.SpecialtyLegal, domain.SpecialtyContable},
		Question:    "q",
	})
	assert.ErrorIs(t, err, apperrors.ValidationError(nil))

	_, err = env.intake.Submit(ctx, p, SubmitConsultationInput{
		Tier:        domain.TierPaid,
		Specialties: []domain.Specialty{"maritimo"},
		Question:    "q",
	})
	assert.ErrorIs(t, err, apperrors.ValidationError(nil))
	assert.Zero(t, countConsultations(t, env))
}

func TestAnswerConsultation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.principal(t, "ana", "client")
	advisor := env.principal(t, "carlos", "asesor")

	res, err := env.intake.Submit(ctx, client, SubmitConsultationInput{
		Tier:        domain.TierFree,
		Specialties: []domain.Specialty{domain.SpecialtyContractual},
		Question:    "¿Puedo terminar mi contrato?",
	})
	require.NoError(t, err)
	id := res.Consultation.ID.Hex()

	_, err = env.intake.Answer(ctx, client, id, AnswerConsultationInput{Answer: "sí"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	queue, err := env.intake.List(ctx, advisor, models.ConsultationPending)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	answered, err := env.intake.Answer(ctx, advisor, id, AnswerConsultationInput{Answer: "Revise la cláusula de terminación."})
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationAnswered, answered.Status)
	assert.Equal(t, advisor.ID, *answered.AnsweredBy)

	_, err = env.intake.Answer(ctx, advisor, id, AnswerConsultationInput{Answer: "again"})
	assert.ErrorIs(t, err, apperrors.ErrConsultationNotPending)

	_, err = env.intake.Answer(ctx, advisor, "not-an-id", AnswerConsultationInput{Answer: "x"})
	assert.ErrorIs(t, err, apperrors.ErrConsultationNotFound)
}

func TestGetHidesOtherUsersConsultations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.principal(t, "ana", "client")
	other := env.principal(t, "luis", "client")

	res, err := env.intake.Submit(ctx, owner, SubmitConsultationInput{
		Tier:        domain.TierFree,
		Specialties: []domain.Specialty{domain.SpecialtyContable},
		Question:    "q",
	})
	require.NoError(t, err)

	_, err = env.intake.Get(ctx, other, res.Consultation.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrConsultationNotFound)
}
