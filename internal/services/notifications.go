package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/logger"
)

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// NotificationService turns domain events into SMS and email. Either
// channel may be nil, in which case it is skipped.
type NotificationService struct {
	sms  SMSSender
	mail Mailer
}

func NewNotificationService(sms SMSSender, mail Mailer) *NotificationService {
	return &NotificationService{sms: sms, mail: mail}
}

// Handle implements events.Handler. Unknown events are ignored.
func (s *NotificationService) Handle(ctx context.Context, env events.Envelope) error {
	switch env.Event {
	case events.KeyAppointmentBooked:
		var e events.AppointmentEvent
		if err := env.Decode(&e); err != nil {
			return err
		}
		return s.appointmentBooked(ctx, e)
	case events.KeyAppointmentCancelled:
		var e events.AppointmentEvent
		if err := env.Decode(&e); err != nil {
			return err
		}
		return s.email(ctx, e.Recipient, "Cita cancelada",
			fmt.Sprintf("<p>Hola %s,</p><p>Tu cita del %s a las %s con %s fue cancelada.</p>",
				esc(e.Recipient.Name), esc(e.Date), esc(e.TimeSlot), esc(e.SpecialistName)))
	case events.KeyConsultationSubmitted:
		var e events.ConsultationSubmitted
		if err := env.Decode(&e); err != nil {
			return err
		}
		return s.email(ctx, e.Recipient, "Consulta recibida",
			fmt.Sprintf("<p>Hola %s,</p><p>Recibimos tu consulta (%s). Un especialista te responderá pronto.</p>",
				esc(e.Recipient.Name), esc(e.ConsultationID)))
	case events.KeySubscriptionActivated:
		var e events.SubscriptionActivated
		if err := env.Decode(&e); err != nil {
			return err
		}
		return s.subscriptionActivated(ctx, e)
	case events.KeyPasswordResetRequested:
		var e events.PasswordResetRequested
		if err := env.Decode(&e); err != nil {
			return err
		}
		return s.email(ctx, e.Recipient, "Restablece tu contraseña",
			fmt.Sprintf(`<p>Hola %s,</p><p>Usa <a href="%s">este enlace</a> para elegir una nueva contraseña. Vence a las %s.</p>`,
				esc(e.Recipient.Name), esc(e.ResetURL), e.ExpiresAt.Format("15:04")))
	default:
		logger.CtxDebug(ctx, "notification skipped", "event", env.Event)
		return nil
	}
}

func (s *NotificationService) appointmentBooked(ctx context.Context, e events.AppointmentEvent) error {
	body := fmt.Sprintf(
		`<p>Hola %s,</p><p>Tu cita está confirmada para el %s a las %s con %s.</p><p>Enlace de la videollamada: <a href="%s">%s</a></p>`,
		esc(e.Recipient.Name), esc(e.Date), esc(e.TimeSlot), esc(e.SpecialistName), esc(e.MeetingURL), esc(e.MeetingURL))
	mailErr := s.email(ctx, e.Recipient, "Cita confirmada", body)

	sms := fmt.Sprintf("LegalInmo: cita confirmada %s %s con %s.", e.Date, e.TimeSlot, e.SpecialistName)
	smsErr := s.text(ctx, e.Recipient, sms)
	return errors.Join(mailErr, smsErr)
}

func (s *NotificationService) subscriptionActivated(ctx context.Context, e events.SubscriptionActivated) error {
	next := "sin renovación"
	if e.NextBillingDate != nil {
		next = e.NextBillingDate.Format("2006-01-02")
	}
	return s.email(ctx, e.Recipient, "Plan activado",
		fmt.Sprintf("<p>Hola %s,</p><p>Tu plan %s está activo. Total pagado: %s %s. Próximo cobro: %s.</p>",
			esc(e.Recipient.Name), esc(e.PlanName), formatAmount(e.Total), esc(e.Currency), next))
}

func (s *NotificationService) email(ctx context.Context, to events.Recipient, subject, body string) error {
	if s.mail == nil || to.Email == "" {
		logger.CtxDebug(ctx, "email not sent", "subject", subject, "reason", "mailer disabled or no address")
		return nil
	}
	if err := s.mail.SendEmail(ctx, to.Email, subject, body); err != nil {
		return fmt.Errorf("send email %q: %w", subject, err)
	}
	logger.CtxInfo(ctx, "email sent", "subject", subject, "user_id", to.UserID)
	return nil
}

func (s *NotificationService) text(ctx context.Context, to events.Recipient, msg string) error {
	if s.sms == nil || to.Phone == "" {
		logger.CtxDebug(ctx, "SMS not sent", "reason", "sms disabled or no phone number")
		return nil
	}
	if err := s.sms.SendSMS(ctx, to.Phone, msg); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	logger.CtxInfo(ctx, "SMS sent", "user_id", to.UserID)
	return nil
}

func esc(s string) string { return html.EscapeString(s) }

// formatAmount renders minor units as "593.81".
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// --- Textbelt ---

const textbeltURL = "https://textbelt.com/text"

type TextbeltSender struct {
	key    string
	url    string
	client *http.Client
}

func NewTextbeltSender(key string) *TextbeltSender {
	return &TextbeltSender{key: key, url: textbeltURL, client: &http.Client{Timeout: 15 * time.Second}}
}

func (t *TextbeltSender) SendSMS(ctx context.Context, phone, message string) error {
	postBody, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     t.key,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(postBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("textbelt response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt: %s", result.Error)
	}
	return nil
}

// --- SMTP ---

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{from: from, dialer: gomail.NewDialer(host, port, user, password)}
}

func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}
