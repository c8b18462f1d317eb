package api

import (
	"errors"
	"net/http"

	"alcyxob/fitness-hub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c *gin.Context, code int, data any) {
	c.JSON(code, envelope{Status: statusSuccess, Data: data})
}

// respondList also reports how many items the page holds.
func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	c.JSON(http.StatusOK, envelope{Status: statusSuccess, Results: &n, Data: items})
}

// abortWithError stops the chain with a fail/error envelope.
func abortWithError(c *gin.Context, code int, message string) {
	status := statusFail
	if code >= http.StatusInternalServerError {
		status = statusError
	}
	c.AbortWithStatusJSON(code, envelope{Status: status, Message: message})
}

// errorStatus maps a domain error to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err in the envelope. Unexpected errors are logged and
// hidden from the client.
func respondError(c *gin.Context, err error) {
	code := errorStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		requestLogger(c).WithError(err).Error("request failed")
		message = "internal server error"
	} else if code >= http.StatusInternalServerError {
		requestLogger(c).WithError(err).Warn("dependency failed")
	}
	_ = c.Error(err)
	abortWithError(c, code, message)
}

// requestLogger returns the logger scoped to the current request.
func requestLogger(c *gin.Context) logrus.FieldLogger {
	if l, ok := c.Get(contextLoggerKey); ok {
		if logger, ok := l.(logrus.FieldLogger); ok {
			return logger
		}
	}
	return logrus.StandardLogger()
}
