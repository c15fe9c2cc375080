// Package client is a Go consumer of the LegalInmo API: an explicit
// session, the form state behind each screen and an HTTP implementation
// of the service calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/legalinmo/legal-api/pkg/domain"
)

type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type RegisterRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
	Role            string `json:"role,omitempty"`
	AcceptPolicy    bool   `json:"acceptPolicy"`
}

type Consultation struct {
	ID          string             `json:"id"`
	Tier        domain.Tier        `json:"tier"`
	Specialties []domain.Specialty `json:"specialties"`
	Question    string             `json:"question"`
	Status      string             `json:"status"`
}

type ConsultationResult struct {
	Consultation Consultation `json:"consultation"`
	Message      string       `json:"message"`
	Next         string       `json:"next,omitempty"`
}

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type Appointment struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	TimeSlot       string    `json:"timeSlot"`
	SpecialistID   int       `json:"specialistId"`
	SpecialistName string    `json:"specialistName"`
	Status         string    `json:"status"`
	StartsAt       time.Time `json:"startsAt"`
	MeetingURL     string    `json:"meetingUrl"`
}

type BookingResult struct {
	Appointment Appointment `json:"appointment"`
	Message     string      `json:"message"`
}

type PaymentRequest struct {
	PlanID         domain.PlanID        `json:"planId"`
	Method         domain.PaymentMethod `json:"paymentMethod"`
	Card           *domain.Card         `json:"card,omitempty"`
	ConsultationID string               `json:"consultationId,omitempty"`
}

type Payment struct {
	ID        string        `json:"id"`
	PlanID    domain.PlanID `json:"planId"`
	Subtotal  int64         `json:"subtotal"`
	Tax       int64         `json:"tax"`
	Total     int64         `json:"total"`
	Status    string        `json:"status"`
	CardLast4 string        `json:"cardLast4,omitempty"`
}

type PaymentResult struct {
	Payment              Payment `json:"payment"`
	Message              string  `json:"message"`
	Redirect             string  `json:"redirect"`
	RedirectAfterSeconds int     `json:"redirectAfterSeconds,omitempty"`
}

// Services is everything the screens need from the backend.
type Services interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, identifier, password string) (*AuthResponse, error)
	Logout(ctx context.Context) error
	SubmitConsultation(ctx context.Context, tier domain.Tier, specialties []domain.Specialty, question string) (*ConsultationResult, error)
	Availability(ctx context.Context, date string, specialistID int) ([]Slot, error)
	BookAppointment(ctx context.Context, req domain.BookingRequest) (*BookingResult, error)
	Pay(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("legalinmo: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Client talks to the API over HTTP. Successful sign-ins start the
// session; a 401 on an authenticated call clears it.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, c.session.Start(out.Token)
}

func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"identifier": identifier, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, c.session.Start(out.Token)
}

// Logout ends the session locally even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if cerr := c.session.Clear(); err == nil {
		err = cerr
	}
	return err
}

func (c *Client) SubmitConsultation(ctx context.Context, tier domain.Tier, specialties []domain.Specialty, question string) (*ConsultationResult, error) {
	var out ConsultationResult
	body := map[string]any{"tier": tier, "specialties": specialties, "question": question}
	if err := c.do(ctx, http.MethodPost, "/api/consultations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Availability(ctx context.Context, date string, specialistID int) ([]Slot, error) {
	q := url.Values{"date": {date}, "specialistId": {strconv.Itoa(specialistID)}}
	var out struct {
		Slots []Slot `json:"slots"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/appointments/availability?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

func (c *Client) BookAppointment(ctx context.Context, req domain.BookingRequest) (*BookingResult, error) {
	var out BookingResult
	if err := c.do(ctx, http.MethodPost, "/api/appointments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pay(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	var out PaymentResult
	if err := c.do(ctx, http.MethodPost, "/api/payments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tok := c.session.Token()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("legalinmo %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && tok != "" {
			_ = c.session.Clear()
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) *APIError {
	var body struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode, Code: "HTTP_" + strconv.Itoa(resp.StatusCode)}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil || body.Error.Code == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}
	apiErr.Code, apiErr.Message = body.Error.Code, body.Error.Message
	_ = json.Unmarshal(body.Error.Details, &apiErr.Details)
	return apiErr
}
