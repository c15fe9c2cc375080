package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/services"
	"github.com/legalinmo/legal-api/internal/utils"
)

const (
	keyClaims    = "claims"
	keyPrincipal = "principal"

	// TokenCookie lets page navigations carry the session credential.
	TokenCookie = "token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

// BearerToken reads the credential from the Authorization header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// RequestToken is BearerToken, falling back to the token cookie.
func RequestToken(c *gin.Context) string {
	if tok := BearerToken(c); tok != "" {
		return tok
	}
	tok, _ := c.Cookie(TokenCookie)
	return tok
}

// AuthMiddleware rejects requests without a live credential and stores the
// caller on the context for handlers.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header required"))
			return
		}
		claims, err := auth.Authenticate(c.Request.Context(), tok)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		p, err := services.PrincipalFromClaims(claims)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.Set(keyClaims, claims)
		c.Set(keyPrincipal, p)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// RequireRole lets through only callers holding one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (services.Principal, bool) {
	v, ok := c.Get(keyPrincipal)
	if !ok {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}

func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(keyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
