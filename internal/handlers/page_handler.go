package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/middleware"
)

type page struct {
	Path      string `json:"path"`
	Name      string `json:"page"`
	Protected bool   `json:"protected"`
}

var pages = []page{
	{Path: "/", Name: "home"},
	{Path: "/login", Name: "login"},
	{Path: "/register", Name: "register"},
	{Path: "/forgot-password", Name: "forgot-password"},
	{Path: "/reset-password", Name: "reset-password"},
	{Path: "/dashboard", Name: "dashboard", Protected: true},
	{Path: "/consultation", Name: "consultation", Protected: true},
	{Path: "/appointments", Name: "appointments", Protected: true},
	{Path: "/payment", Name: "payment", Protected: true},
}

var apiPrefixes = []string{"/api/", "/auth/", "/chat/", "/webhooks/"}

func (h *Handler) registerPages(r *gin.Engine) {
	for _, p := range pages {
		p := p
		if p.Protected {
			r.GET(p.Path, h.requireSession, h.servePage(p))
		} else {
			r.GET(p.Path, h.servePage(p))
		}
	}
	r.NoRoute(h.notFound)
}

// requireSession sends visitors without a live credential to /login before
// anything of the page is written.
func (h *Handler) requireSession(c *gin.Context) {
	tok := middleware.RequestToken(c)
	if tok == "" {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	if _, err := h.Identity.Authenticate(c.Request.Context(), tok); err != nil {
		logger.CtxDebug(c.Request.Context(), "page guard rejected credential", "path", c.Request.URL.Path, "error", err.Error())
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) servePage(p page) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.opts.SPADir != "" {
			c.File(filepath.Join(h.opts.SPADir, "index.html"))
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// notFound serves built front-end assets, answers JSON 404s under the API
// prefixes and sends every other path home.
func (h *Handler) notFound(c *gin.Context) {
	path := c.Request.URL.Path
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			apperrors.HandleError(c, apperrors.NewNotFoundError("route", "Route not found"))
			return
		}
	}
	if c.Request.Method == http.MethodGet && h.opts.SPADir != "" {
		if f, ok := h.asset(path); ok {
			c.File(f)
			return
		}
	}
	c.Redirect(http.StatusFound, "/")
}

// asset resolves path inside SPADir, refusing anything that escapes it.
func (h *Handler) asset(path string) (string, bool) {
	root, err := filepath.Abs(h.opts.SPADir)
	if err != nil {
		return "", false
	}
	f := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+path)))
	if !strings.HasPrefix(f, root+string(filepath.Separator)) {
		return "", false
	}
	info, err := os.Stat(f)
	if err != nil || info.IsDir() {
		return "", false
	}
	return f, true
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.opts.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Health(ctx); err != nil {
			logger.CtxWarn(ctx, "health check failed", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
