package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/socialx-api/internal/application/notification"
	"github.com/socialx-api/internal/domain"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns every notification and marks the unread ones as read.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	ns, err := h.svc.List(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	if ns == nil {
		ns = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, ns)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.UnreadCount(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkAsRead(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
