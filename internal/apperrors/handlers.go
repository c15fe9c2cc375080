package apperrors

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

var debug atomic.Bool

// SetDebug controls whether internal error messages reach the client.
func SetDebug(v bool) { debug.Store(v) }

// HandleError renders err and aborts the request.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
		if debug.Load() {
			appErr = appErr.WithDetails(err.Error())
		}
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "server error", appErr,
			"path", c.FullPath(),
			"code", appErr.Code,
		)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HandleBindError reports a request body that could not be decoded.
func HandleBindError(c *gin.Context, err error) {
	HandleError(c, ValidationError(gin.H{"body": err.Error()}))
}
