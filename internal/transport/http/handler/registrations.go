package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/socialx-api/internal/application/registration"
	"github.com/socialx-api/internal/domain"
)

// RegistrationHandler drives sign-up: start, resend, status, confirm, abandon.
type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

type confirmRequest struct {
	Code string `json:"code"`
}

func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.Start(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, pendingStatus(http.StatusCreated, p.DeliveryFailed),
		pendingEnvelope(p.Ticket, p.Email, p.ExpiresIn, p.DeliveryFailed))
}

func (h *RegistrationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Resend(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, pendingStatus(http.StatusOK, p.DeliveryFailed),
		pendingEnvelope(p.Ticket, p.Email, p.ExpiresIn, p.DeliveryFailed))
}

func (h *RegistrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Status(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingEnvelope{Ticket: p.Ticket, Email: p.Email, ExpiresIn: p.ExpiresIn})
}

func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	res, err := h.svc.Confirm(r.Context(), chi.URLParam(r, "ticket"), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authEnvelope(res))
}

func (h *RegistrationHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Abandon(r.Context(), chi.URLParam(r, "ticket")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "registration cancelled"})
}
