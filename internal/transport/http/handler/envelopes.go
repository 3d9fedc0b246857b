package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/socialx-api/internal/application/session"
	"github.com/socialx-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// Code is a stable machine-readable reason, e.g. "username_taken".
	Code string `json:"code,omitempty"`
}

// AuthEnvelope wraps login, refresh and registration-confirm responses.
type AuthEnvelope struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	User         *domain.User    `json:"user,omitempty"`
}

// authEnvelope shapes a freshly opened session for the client.
func authEnvelope(res *session.LoginResult) AuthEnvelope {
	env := AuthEnvelope{AccessToken: res.Bearer, RefreshToken: res.RefreshToken, Session: res.Session}
	if res.Session != nil {
		env.User = res.Session.User
	}
	return env
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session,omitempty"`
	User    *domain.User    `json:"user,omitempty"`
}

// PendingEnvelope wraps responses that wait for an emailed code.
type PendingEnvelope struct {
	Ticket         string `json:"ticket,omitempty"`
	Email          string `json:"email"`
	ExpiresIn      int    `json:"expires_in"`
	DeliveryFailed bool   `json:"delivery_failed"`
	Message        string `json:"message,omitempty"`
}

// PublicUser is an account as other accounts see it. It omits the email.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsPrivate bool      `json:"is_private"`
	Created   time.Time `json:"created"`
}

// ProfileEnvelope is a profile page.
type ProfileEnvelope struct {
	User           *PublicUser   `json:"user"`
	Posts          []domain.Post `json:"posts"`
	FollowerCount  int           `json:"follower_count"`
	FollowingCount int           `json:"following_count"`
	IsFollowing    bool          `json:"is_following"`
}

// SearchEnvelope holds search matches.
type SearchEnvelope struct {
	Query string        `json:"query"`
	Users []PublicUser  `json:"users"`
	Posts []domain.Post `json:"posts"`
}

const (
	msgCheckEmail     = "We sent a verification code to your email."
	msgDeliveryFailed = "We could not send the verification email. Please request a new code."
)

func toPublicUser(u *domain.User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.UserID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		IsPrivate: u.IsPrivate,
		Created:   u.CreatedAt,
	}
}

func pendingEnvelope(ticket, email string, expiresIn int, deliveryFailed bool) PendingEnvelope {
	env := PendingEnvelope{Ticket: ticket, Email: email, ExpiresIn: expiresIn, DeliveryFailed: deliveryFailed, Message: msgCheckEmail}
	if deliveryFailed {
		env.Message = msgDeliveryFailed
	}
	return env
}

// pendingStatus answers 202 when the code exists but the email did not go out.
func pendingStatus(ok int, deliveryFailed bool) int {
	if deliveryFailed {
		return http.StatusAccepted
	}
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
