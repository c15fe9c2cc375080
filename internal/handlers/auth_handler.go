package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/middleware"
	"github.com/legalinmo/legal-api/internal/services"
)

const forgotPasswordMessage = "Si el correo está registrado, recibirás un enlace para restablecer tu contraseña."

func (h *Handler) RegisterUser(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.Identity.Register(c.Request.Context(), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.setSessionCookie(c, sess)
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Login(c *gin.Context) {
	var req services.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.Identity.Login(c.Request.Context(), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, sess)
}

// GetSession echoes the validated credential claims.
func (h *Handler) GetSession(c *gin.Context) {
	cl, ok := claims(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       cl.UserID,
			"name":     cl.Name,
			"email":    cl.Email,
			"username": cl.Username,
			"phone":    cl.Phone,
			"role":     cl.Role,
		},
		"expiresAt": cl.ExpiresAt.Time,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	cl, ok := claims(c)
	if !ok {
		return
	}
	if err := h.Identity.Logout(c.Request.Context(), cl); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.opts.SecureCookies, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req services.ForgotPasswordInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Identity.ForgotPassword(c.Request.Context(), req); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": forgotPasswordMessage})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Identity.ResetPassword(c.Request.Context(), req); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contraseña actualizada. Ya puedes iniciar sesión."})
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	u, err := h.Identity.Profile(c.Request.Context(), p.ID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateCurrentUser changes name or phone and hands back a fresh session,
// since both travel inside the credential.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.UpdateProfileInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.Identity.UpdateProfile(c.Request.Context(), p.ID, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) GetDashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	d, err := h.Dashboard.Get(c.Request.Context(), p)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) setSessionCookie(c *gin.Context, sess *services.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, sess.Token, maxAge, "/", "", h.opts.SecureCookies, true)
}
