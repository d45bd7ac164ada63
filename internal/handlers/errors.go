package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/indusops/opsdesk/internal/upstream"
	"github.com/indusops/opsdesk/internal/workflow"
)

// statusFor maps a service error to an HTTP status and a message safe to
// show the user
func statusFor(err error) (int, string) {
	var apiErr *upstream.APIError
	switch {
	case errors.Is(err, workflow.ErrInvalid):
		return http.StatusBadRequest, userMessage(err, workflow.ErrInvalid)
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden, userMessage(err, workflow.ErrForbidden)
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound, userMessage(err, workflow.ErrNotFound)
	case errors.Is(err, workflow.ErrIllegalTransition):
		return http.StatusConflict, userMessage(err, workflow.ErrIllegalTransition)
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return http.StatusBadGateway, apiErr.Message
		}
		return http.StatusBadGateway, "Upstream request failed"
	case errors.Is(err, upstream.ErrTransport):
		return http.StatusBadGateway, "Upstream service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// userMessage strips wrapping context and returns the text after the
// sentinel, e.g. "ErrInvalid: rate must be positive" -> "rate must be positive"
func userMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}

// respondErr writes err with the mapped status. Server-side failures are
// logged.
func respondErr(w http.ResponseWriter, req *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", req.Method, req.URL.Path, err)
	}
	respondError(w, status, msg)
}
