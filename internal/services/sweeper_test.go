package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalinmo/legal-api/pkg/domain"
)

func TestDraftSweeper(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.principal(t, "ana", "client")

	draft, err := env.intake.Submit(ctx, p, SubmitConsultationInput{
		Tier: domain.TierPaid, Specialties: []domain.Specialty{domain.SpecialtyLegal}, Question: "¿Puedo vender?",
	})
	require.NoError(t, err)
	_, err = env.intake.Submit(ctx, p, SubmitConsultationInput{
		Tier: domain.TierFree, Specialties: []domain.Specialty{domain.SpecialtyLegal}, Question: "¿Puedo arrendar?",
	})
	require.NoError(t, err)

	sweeper := NewDraftSweeper(env.store, 24*time.Hour)
	sweeper.now = env.clock.Now
	assert.Equal(t, time.Hour, sweeper.interval)

	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(25 * time.Hour)
	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.intake.Get(ctx, p, draft.Consultation.ID.Hex())
	assert.Error(t, err)
	assert.Equal(t, 1, countConsultations(t, env))
}

func TestDraftSweeperInterval(t *testing.T) {
	assert.Equal(t, time.Minute, NewDraftSweeper(nil, time.Minute).interval)
	assert.Equal(t, 15*time.Minute, NewDraftSweeper(nil, time.Hour).interval)
}
