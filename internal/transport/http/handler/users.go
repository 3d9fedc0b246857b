package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/socialx-api/internal/application/account"
)

// UserHandler serves other accounts: profiles, follows and admin removal.
type UserHandler struct {
	svc account.Service
}

func NewUserHandler(svc account.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Profile(r.Context(), chi.URLParam(r, "username"), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{
		User:           toPublicUser(p.User),
		Posts:          p.Posts,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		IsFollowing:    p.IsFollowing,
	})
}

func (h *UserHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	f, err := h.svc.ToggleFollow(r.Context(), uid, chi.URLParam(r, "username"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Delete removes any account by id. Mounted behind the admin role.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account deleted"})
}
