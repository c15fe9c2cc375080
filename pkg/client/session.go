package client

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when there is no usable stored credential.
var ErrNoSession = errors.New("client: no active session")

// TokenStore persists the raw credential between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error { return m.Save("") }

// FileTokenStore keeps the credential in a file readable only by the user.
type FileTokenStore struct {
	Path string
}

func (f FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (f FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Claims is the client's read of a credential. The signature is the
// server's business; the client only needs identity and expiry.
type Claims struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the signed-in state of one client, backed by a TokenStore.
type Session struct {
	mu     sync.RWMutex
	store  TokenStore
	now    func() time.Time
	token  string
	claims *Claims
}

func NewSession(store TokenStore, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{store: store, now: now}
}

// Load restores the stored credential. An unreadable or expired one is
// discarded and ErrNoSession returned.
func (s *Session) Load() error {
	tok, err := s.store.Load()
	if err != nil {
		return err
	}
	if tok == "" {
		return ErrNoSession
	}
	if err := s.set(tok); err != nil {
		_ = s.Clear()
		return ErrNoSession
	}
	return nil
}

// Start adopts a freshly issued credential and persists it.
func (s *Session) Start(token string) error {
	if err := s.set(token); err != nil {
		return err
	}
	return s.store.Save(token)
}

func (s *Session) set(token string) error {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return err
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return ErrNoSession
	}
	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	return nil
}

func (s *Session) Clear() error {
	s.mu.Lock()
	s.token, s.claims = "", nil
	s.mu.Unlock()
	return s.store.Clear()
}

// Token is empty when signed out or once the credential has expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil || !s.now().Before(s.claims.ExpiresAt.Time) {
		return ""
	}
	return s.token
}

func (s *Session) Authenticated() bool { return s.Token() != "" }

func (s *Session) Claims() (*Claims, bool) {
	if !s.Authenticated() {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := *s.claims
	return &c, true
}
