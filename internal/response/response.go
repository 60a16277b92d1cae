// Package response renders the uniform JSON envelope every endpoint returns:
// success flag, human-readable message, optional data payload and optional
// errors array.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/pkg/logger"
)

// Envelope is the response body shape shared by success and failure.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Error maps err onto its HTTP status and failure envelope. Internal causes
// are logged server-side and never leak to the client outside debug mode.
func Error(c *gin.Context, err error) {
	ae := apperr.As(err)
	msg := ae.Message
	var details []string
	switch ae.Kind {
	case apperr.KindInternal:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		if gin.Mode() != gin.DebugMode {
			msg = "internal server error"
		}
	default:
		details = ae.Details
	}
	c.JSON(ae.HTTPStatus(), Envelope{Success: false, Message: msg, Errors: details})
}

// AbortError is Error plus request abortion, for middleware.
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
