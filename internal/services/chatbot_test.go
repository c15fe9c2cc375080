package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/models"
)

func TestReply(t *testing.T) {
	cases := []struct{ text, prefix string }{
		{"¿Cuánto es el PREDIAL?", "El impuesto predial"},
		{"tengo un contrato de alquiler", "Los contratos de alquiler"},
		{"quiero poner una demanda por hipoteca", "Antes de iniciar un proceso legal"},
		{"firmé un contrato", "Los contratos inmobiliarios"},
		{"mi hipoteca", "Las hipotecas"},
		{"trámite de sucesión", "Los procesos sucesorales"},
		{"hola", "Gracias por tu consulta"},
	}
	for _, tc := range cases {
		got := Reply(tc.text)
		assert.Truef(t, strings.HasPrefix(got, tc.prefix), "%q -> %q", tc.text, got)
	}
}

func TestChatConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.chat.Start(ctx)
	require.NoError(t, err)
	assert.True(t, c.Open)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, models.SenderBot, c.Messages[0].Sender)

	_, err = env.chat.Send(ctx, c.ID, SendMessageInput{Text: "   "})
	assert.ErrorIs(t, err, apperrors.ValidationError(nil))

	res, err := env.chat.Send(ctx, c.ID, SendMessageInput{Text: "predial"})
	require.NoError(t, err)
	require.Len(t, res.Conversation.Messages, 3)
	assert.Equal(t, "predial", res.Conversation.Messages[1].Text)
	assert.Equal(t, models.SenderUser, res.Conversation.Messages[1].Sender)
	assert.Equal(t, res.Reply, res.Conversation.Messages[2])

	other, err := env.chat.Start(ctx)
	require.NoError(t, err)
	got, err := env.chat.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)

	_, err = env.chat.Send(ctx, "missing", SendMessageInput{Text: "hola"})
	assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)
}

func TestChatWindowFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yes, no := true, false

	c, err := env.chat.Start(ctx)
	require.NoError(t, err)

	c, err = env.chat.UpdateWindow(ctx, c.ID, WindowInput{Minimized: &yes})
	require.NoError(t, err)
	assert.True(t, c.Open)
	assert.True(t, c.Minimized)

	c, err = env.chat.UpdateWindow(ctx, c.ID, WindowInput{Open: &no})
	require.NoError(t, err)
	assert.False(t, c.Open)
	assert.True(t, c.Minimized)

	c, err = env.chat.UpdateWindow(ctx, c.ID, WindowInput{Open: &yes})
	require.NoError(t, err)
	assert.True(t, c.Open)
	assert.False(t, c.Minimized)
	assert.Len(t, c.Messages, 1)
}
