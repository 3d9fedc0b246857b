package handler

import (
	"net/http"

	"github.com/socialx-api/internal/application/account"
	"github.com/socialx-api/internal/domain"
)

// MeHandler serves the authenticated account: settings, avatar, password,
// email change and account deletion.
type MeHandler struct {
	svc       account.Service
	maxUpload int64
}

func NewMeHandler(svc account.Service, maxUpload int64) *MeHandler {
	return &MeHandler{svc: svc, maxUpload: maxUpload}
}

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Me(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *MeHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.svc.UpdateSettings(r.Context(), uid, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// SetAvatar accepts a multipart form with an "avatar" image file.
func (h *MeHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	limitBody(w, r, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	in, closer, err := formFile(r, "avatar")
	if err != nil || in == nil {
		writeError(w, http.StatusBadRequest, "avatar file required")
		return
	}
	defer closeQuietly(closer)

	u, err := h.svc.SetAvatar(r.Context(), uid, *in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *MeHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ChangePassword(r.Context(), uid, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
}

func (h *MeHandler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.EmailChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ch, err := h.svc.RequestEmailChange(r.Context(), uid, req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, pendingStatus(http.StatusOK, ch.DeliveryFailed),
		pendingEnvelope("", ch.Email, ch.ExpiresIn, ch.DeliveryFailed))
}

func (h *MeHandler) EmailChangeStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	ch, err := h.svc.EmailChangeStatus(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingEnvelope{Email: ch.Email, ExpiresIn: ch.ExpiresIn})
}

func (h *MeHandler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	u, err := h.svc.ConfirmEmailChange(r.Context(), uid, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *MeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), uid); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account deleted"})
}
