package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/models"
	"github.com/legalinmo/legal-api/internal/store"
)

const chatGreeting = "¡Hola! Soy el asistente legal de LegalInmo. ¿En qué puedo ayudarte hoy?"

const chatDefaultReply = "Gracias por tu consulta. Para recibir asesoría legal personalizada sobre este tema, te recomendamos utilizar nuestro servicio de consulta gratuita o agendar una cita con nuestros especialistas."

// chatRules are matched in order; the first keyword found wins.
var chatRules = []struct {
	keyword string
	reply   string
}{
	{"predial", "El impuesto predial es un tributo que deben pagar los propietarios de bienes inmuebles. Si necesitas asesoría especializada sobre este tema, te recomendamos agendar una cita con nuestros expertos."},
	{"alquiler", "Los contratos de alquiler o arrendamiento deben cumplir ciertos requisitos legales. Para una revisión detallada de tu contrato o situación, considera adquirir nuestro plan de asesoría."},
	{"sucesión", "Los procesos sucesorales pueden ser complejos y requieren un análisis detallado de cada caso. Nuestros especialistas pueden guiarte en este proceso si agendas una cita."},
	{"demanda", "Antes de iniciar un proceso legal, es importante analizar todas las opciones disponibles. Te recomendamos agendar una consulta para evaluar tu caso específico."},
	{"contrato", "Los contratos inmobiliarios deben cumplir requisitos específicos para ser válidos. Si necesitas revisar o elaborar un contrato, nuestro equipo legal puede ayudarte con un análisis profesional."},
	{"hipoteca", "Las hipotecas son garantías reales que implican obligaciones específicas. Para entender las implicaciones de tu caso particular, te recomendamos una consulta especializada."},
}

// Reply picks the canned answer for text.
func Reply(text string) string {
	lower := strings.ToLower(text)
	for _, r := range chatRules {
		if strings.Contains(lower, r.keyword) {
			return r.reply
		}
	}
	return chatDefaultReply
}

type SendMessageInput struct {
	Text string `json:"text"`
}

// WindowInput changes the widget flags; nil fields keep their value.
type WindowInput struct {
	Open      *bool `json:"open"`
	Minimized *bool `json:"minimized"`
}

type SendResult struct {
	Conversation *models.Conversation `json:"conversation"`
	Reply        models.ChatMessage   `json:"reply"`
}

type ChatService struct {
	conversations store.ConversationStore
	now           func() time.Time
}

func NewChatService(conversations store.ConversationStore) *ChatService {
	return &ChatService{conversations: conversations, now: time.Now}
}

// Start opens a conversation seeded with the greeting.
func (s *ChatService) Start(ctx context.Context) (*models.Conversation, error) {
	now := s.now()
	c := &models.Conversation{
		ID:   uuid.NewString(),
		Open: true,
		Messages: []models.ChatMessage{
			{Text: chatGreeting, Sender: models.SenderBot, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.CreateConversation(ctx, c); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return c, nil
}

func (s *ChatService) Get(ctx context.Context, id string) (*models.Conversation, error) {
	c, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrConversationNotFound)
	}
	return c, nil
}

// Send appends the user's message and the bot reply. Blank text is
// rejected and nothing is appended.
func (s *ChatService) Send(ctx context.Context, id string, in SendMessageInput) (*SendResult, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperrors.ValidationError(map[string]string{"text": "This field is required"})
	}
	now := s.now()
	reply := models.ChatMessage{Text: Reply(in.Text), Sender: models.SenderBot, Timestamp: now}
	c, err := s.conversations.AppendMessages(ctx, id, now,
		models.ChatMessage{Text: in.Text, Sender: models.SenderUser, Timestamp: now},
		reply,
	)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrConversationNotFound)
	}
	return &SendResult{Conversation: c, Reply: reply}, nil
}

// UpdateWindow applies the widget flags. Opening a closed widget always
// shows it un-minimized.
func (s *ChatService) UpdateWindow(ctx context.Context, id string, in WindowInput) (*models.Conversation, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	open, minimized := c.Open, c.Minimized
	if in.Minimized != nil {
		minimized = *in.Minimized
	}
	if in.Open != nil {
		if *in.Open && !c.Open {
			minimized = false
		}
		open = *in.Open
	}
	c, err = s.conversations.SetConversationFlags(ctx, id, open, minimized, s.now())
	if err != nil {
		return nil, storeErr(err, apperrors.ErrConversationNotFound)
	}
	return c, nil
}
