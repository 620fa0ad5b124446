package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neogranadina/zasqua/internal/domain"
)

// Error response codes.
const (
	codeUnauthorized = "unauthorized"
	codeUnavailable  = "index_unavailable"
	codeUpstream     = "search_failed"
	codeBadRequest   = "bad_request"
	codeInternal     = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// sentinelErrors maps domain sentinels to HTTP statuses, in match order.
var sentinelErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeUnavailable},
	{domain.ErrRequestFailed, http.StatusBadGateway, codeUpstream},
	{domain.ErrInvalidRequest, http.StatusBadRequest, codeBadRequest},
}

func defaultErrorHandlers() []errorHandler {
	handlers := make([]errorHandler, 0, len(sentinelErrors))
	for _, s := range sentinelErrors {
		handlers = append(handlers, sentinelHandler(s.err, s.status, s.code))
	}
	return handlers
}

// statusFor returns the HTTP status of err for the HTML page.
func statusFor(err error) int {
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
