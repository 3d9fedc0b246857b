package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/transport/http/middleware"
)

// codedError is implemented by input errors that carry a stable reason code.
type codedError interface {
	ErrorCode() string
}

// Reason codes for verification failures.
const (
	codeInvalidCode = "code_invalid"
	codeExpiredCode = "code_expired"
)

// httpError maps a service error to a status and a client-safe body.
func httpError(w http.ResponseWriter, err error) {
	var coded codedError
	switch {
	case errors.As(err, &coded):
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: err.Error(), Code: coded.ErrorCode()})
	case errors.Is(err, domain.ErrCodeExpired):
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{
			Error: "This verification code has expired. Please request a new one.",
			Code:  codeExpiredCode,
		})
	case errors.Is(err, domain.ErrCodeNotFound):
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{
			Error: "Invalid verification code.",
			Code:  codeInvalidCode,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// callerID returns the authenticated account id, answering 401 itself when
// the request carries no claims.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.UserID, true
}
