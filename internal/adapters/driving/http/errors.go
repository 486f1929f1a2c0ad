package http

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error  string `json:"error" example:"insufficient policy text extracted"`
	URL    string `json:"url,omitempty" example:"https://example.com/privacy"`
	Detail string `json:"detail,omitempty"`
}

// statusFor maps a pipeline error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the caller-facing message for err, without internal causes
func publicMessage(err error) string {
	var pe *domain.PipelineError
	if errors.As(err, &pe) {
		if pe.Message != "" {
			return pe.Message
		}
		if pe.Kind != nil {
			return pe.Kind.Error()
		}
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "policy not found"
	default:
		return "internal server error"
	}
}

// writePipelineError writes err with its URL. Internal detail is only exposed in development.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error: publicMessage(err),
		URL:   domain.ErrorURL(err),
	}
	if !s.environment.IsProduction() {
		resp.Detail = err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "url", resp.URL, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "url", resp.URL, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}
