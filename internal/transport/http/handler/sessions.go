package handler

import (
	"net/http"

	"github.com/socialx-api/internal/application/session"
	"github.com/socialx-api/internal/transport/http/middleware"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionHandler serves login, token refresh, the current session and
// logout.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Login accepts a username or email with a password.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authEnvelope(res))
}

// Refresh rotates the refresh token; the old one stops working.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	bearer, rotated, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{AccessToken: bearer, RefreshToken: rotated})
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := h.svc.GetCurrent(r.Context(), sid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: sess, User: sess.User})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Logout(r.Context(), sid); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func sessionID(r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}
