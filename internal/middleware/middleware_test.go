package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/utils"
)

type stubAuth map[string]*utils.Claims

func (s stubAuth) Authenticate(_ context.Context, token string) (*utils.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func newRouter(auth Authenticator, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	handlers := []gin.HandlerFunc{AuthMiddleware(auth)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		c.String(http.StatusOK, p.Role)
	})
	r.GET("/private", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := stubAuth{
		"client-token": {UserID: primitive.NewObjectID().Hex(), Role: "client"},
		"broken-id":    {UserID: "nope", Role: "client"},
	}
	r := newRouter(auth)

	w := get(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, get(r, "forged").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "broken-id").Code)

	w = get(r, "client-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	auth := stubAuth{
		"client": {UserID: primitive.NewObjectID().Hex(), Role: "client"},
		"asesor": {UserID: primitive.NewObjectID().Hex(), Role: "asesor"},
	}
	r := newRouter(auth, "asesor", "admin")

	assert.Equal(t, http.StatusForbidden, get(r, "client").Code)
	assert.Equal(t, http.StatusOK, get(r, "asesor").Code)
}

func TestRequestTokenFallsBackToCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Request.AddCookie(&http.Cookie{Name: TokenCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", RequestToken(c))

	c.Request.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", RequestToken(c))
}

func TestRequestIDIsPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logging(), Tracing())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
