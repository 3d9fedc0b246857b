package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/socialx-api/internal/application/media"
	"github.com/socialx-api/internal/application/notification"
	"github.com/socialx-api/internal/application/otp"
	"github.com/socialx-api/internal/application/post"
	"github.com/socialx-api/internal/application/registration"
	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName     = "first_name"
	fieldLastName      = "last_name"
	fieldBio           = "bio"
	fieldIsPrivate     = "is_private"
	fieldAvatarKey     = "avatar_key"
	fieldEmail         = "email"
	fieldEmailVerified = "email_verified"
	fieldPasswordHash  = "password_hash"
)

const defaultPendingTTL = 30 * time.Minute

// ErrNoEmailChange means there is no pending address change, or it expired.
var ErrNoEmailChange = fmt.Errorf("no pending email change: %w", domain.ErrNotFound)

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
}

type EdgeStore interface {
	Put(ctx context.Context, e *domain.Edge) error
	Delete(ctx context.Context, kind, actorID, target string) error
	Exists(ctx context.Context, kind, actorID, target string) (bool, error)
	ListFrom(ctx context.Context, kind, actorID string) ([]domain.Edge, error)
	ListTo(ctx context.Context, kind, target string) ([]domain.Edge, error)
	DeleteAll(ctx context.Context, edges []domain.Edge) error
}

type CommentStore interface {
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Comment, error)
	Delete(ctx context.Context, commentID string) error
}

// PostCounters adjusts the denormalised counters on posts the account touched.
type PostCounters interface {
	AddLikes(ctx context.Context, postID string, delta int) error
	AddComments(ctx context.Context, postID string, delta int) error
}

type NotificationStore interface {
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)
	ListBySender(ctx context.Context, senderID string) ([]domain.Notification, error)
	DeleteAll(ctx context.Context, ns []domain.Notification) error
}

type SessionStore interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type PendingStore interface {
	PutEmailChange(ctx context.Context, p *domain.PendingEmailChange, ttl time.Duration) error
	GetEmailChange(ctx context.Context, userID string) (*domain.PendingEmailChange, error)
	DeleteEmailChange(ctx context.Context, userID string) error
}

// EmailChange describes a pending address change as shown to its owner.
type EmailChange struct {
	Email          string `json:"email"`
	ExpiresIn      int    `json:"expires_in"`
	DeliveryFailed bool   `json:"delivery_failed"`
}

type Follow struct {
	Following     bool `json:"following"`
	FollowerCount int  `json:"follower_count"`
}

type Service interface {
	Me(ctx context.Context, userID string) (*domain.User, error)
	Profile(ctx context.Context, username, viewerID string) (*domain.Profile, error)
	UpdateSettings(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.User, error)
	SetAvatar(ctx context.Context, userID string, in media.UploadInput) (*domain.User, error)
	ToggleFollow(ctx context.Context, actorID, username string) (*Follow, error)
	ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error
	RequestEmailChange(ctx context.Context, userID, newEmail string) (*EmailChange, error)
	ConfirmEmailChange(ctx context.Context, userID, code string) (*domain.User, error)
	EmailChangeStatus(ctx context.Context, userID string) (*EmailChange, error)
	// Delete removes the account and everything it created or received.
	Delete(ctx context.Context, userID string) error
}

type ServiceDeps struct {
	Users         UserStore
	Edges         EdgeStore
	Comments      CommentStore
	Counters      PostCounters
	Notifications NotificationStore
	Sessions      SessionStore
	Pending       PendingStore
	Posts         post.Service
	Notifier      notification.Service
	OTP           otp.Service
	Media         media.Service
	PendingTTL    time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type service struct {
	users         UserStore
	edges         EdgeStore
	comments      CommentStore
	counters      PostCounters
	notifications NotificationStore
	sessions      SessionStore
	pending       PendingStore
	posts         post.Service
	notifier      notification.Service
	otp           otp.Service
	media         media.Service
	pendingTTL    time.Duration
	bcryptCost    int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:         deps.Users,
		edges:         deps.Edges,
		comments:      deps.Comments,
		counters:      deps.Counters,
		notifications: deps.Notifications,
		sessions:      deps.Sessions,
		pending:       deps.Pending,
		posts:         deps.Posts,
		notifier:      deps.Notifier,
		otp:           deps.OTP,
		media:         deps.Media,
		pendingTTL:    deps.PendingTTL,
		bcryptCost:    deps.BcryptCost,
	}
	if s.pendingTTL <= 0 {
		s.pendingTTL = defaultPendingTTL
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.withAvatarURL(ctx, u)
	return u, nil
}

func (s *service) Profile(ctx context.Context, username, viewerID string) (*domain.Profile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	s.withAvatarURL(ctx, u)
	posts, err := s.posts.ListByAuthor(ctx, u.UserID, viewerID)
	if err != nil {
		return nil, err
	}
	followers, err := s.edges.ListTo(ctx, domain.EdgeFollow, u.UserID)
	if err != nil {
		return nil, err
	}
	following, err := s.edges.ListFrom(ctx, domain.EdgeFollow, u.UserID)
	if err != nil {
		return nil, err
	}
	p := &domain.Profile{
		User:           u,
		Posts:          posts,
		FollowerCount:  len(followers),
		FollowingCount: len(following),
	}
	if p.Posts == nil {
		p.Posts = []domain.Post{}
	}
	for _, e := range followers {
		if e.ActorID == viewerID {
			p.IsFollowing = true
			break
		}
	}
	return p, nil
}

func (s *service) UpdateSettings(ctx context.Context, userID string, req domain.UpdateSettingsRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates[fieldLastName] = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		updates[fieldBio] = *req.Bio
	}
	if req.IsPrivate != nil {
		updates[fieldIsPrivate] = *req.IsPrivate
	}
	if len(updates) > 0 {
		if err := s.users.Update(ctx, userID, updates); err != nil {
			return nil, err
		}
	}
	return s.Me(ctx, userID)
}

func (s *service) SetAvatar(ctx context.Context, userID string, in media.UploadInput) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.OwnerID = userID
	in.Prefix = media.PrefixAvatars
	in.ImagesOnly = true
	m, err := s.media.Upload(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{fieldAvatarKey: m.Key}); err != nil {
		s.dropMedia(ctx, m.Key)
		return nil, err
	}
	if u.AvatarKey != nil {
		s.dropMedia(ctx, *u.AvatarKey)
	}
	return s.Me(ctx, userID)
}

func (s *service) ToggleFollow(ctx context.Context, actorID, username string) (*Follow, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.UserID == actorID {
		return nil, fmt.Errorf("you cannot follow yourself: %w", domain.ErrBadRequest)
	}
	following, err := s.edges.Exists(ctx, domain.EdgeFollow, actorID, target.UserID)
	if err != nil {
		return nil, err
	}
	if following {
		err = s.edges.Delete(ctx, domain.EdgeFollow, actorID, target.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	} else {
		err = s.edges.Put(ctx, &domain.Edge{
			Source:    domain.EdgeSource(domain.EdgeFollow, actorID),
			Target:    target.UserID,
			Kind:      domain.EdgeFollow,
			ActorID:   actorID,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		if err == nil {
			if nerr := s.notifier.Notify(ctx, notification.Event{
				RecipientID: target.UserID,
				SenderID:    actorID,
				Type:        domain.NotificationFollow,
			}); nerr != nil {
				slog.Warn("could not create follow notification", "recipient_id", target.UserID, "err", nerr)
			}
		}
	}
	followers, err := s.edges.ListTo(ctx, domain.EdgeFollow, target.UserID)
	if err != nil {
		return nil, err
	}
	return &Follow{Following: !following, FollowerCount: len(followers)}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) RequestEmailChange(ctx context.Context, userID, newEmail string) (*EmailChange, error) {
	req := domain.EmailChangeRequest{Email: registration.NormalizeEmail(newEmail)}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Email == u.Email {
		return nil, fmt.Errorf("this is already your email address: %w", domain.ErrBadRequest)
	}
	if err := s.emailAvailable(ctx, req.Email, userID); err != nil {
		return nil, err
	}
	p := &domain.PendingEmailChange{UserID: userID, NewEmail: req.Email, Created: time.Now().UTC()}
	if err := s.pending.PutEmailChange(ctx, p, s.pendingTTL); err != nil {
		return nil, fmt.Errorf("store pending email change: %w", err)
	}
	out := &EmailChange{Email: req.Email}
	if out.ExpiresIn, err = s.otp.Issue(ctx, req.Email, &userID, u.Username); err != nil {
		if !errors.Is(err, domain.ErrDeliveryFailed) {
			return nil, err
		}
		out.DeliveryFailed = true
	}
	return out, nil
}

func (s *service) ConfirmEmailChange(ctx context.Context, userID, code string) (*domain.User, error) {
	p, err := s.pendingEmailChange(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.otp.Confirm(ctx, p.NewEmail, strings.TrimSpace(code), &userID); err != nil {
		return nil, err
	}
	if err := s.emailAvailable(ctx, p.NewEmail, userID); err != nil {
		return nil, err
	}
	err = s.users.Update(ctx, userID, map[string]interface{}{
		fieldEmail:         p.NewEmail,
		fieldEmailVerified: true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.pending.DeleteEmailChange(ctx, userID); err != nil {
		slog.Warn("could not clear pending email change", "user_id", userID, "err", err)
	}
	slog.Info("email address changed", "user_id", userID)
	return s.Me(ctx, userID)
}

func (s *service) EmailChangeStatus(ctx context.Context, userID string) (*EmailChange, error) {
	p, err := s.pendingEmailChange(ctx, userID)
	if err != nil {
		return nil, err
	}
	secs, err := s.otp.RemainingValiditySeconds(ctx, p.NewEmail, &userID)
	if err != nil {
		return nil, err
	}
	return &EmailChange{Email: p.NewEmail, ExpiresIn: secs}, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.posts.DeleteAllByAuthor(ctx, userID); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	if err := s.deleteComments(ctx, userID); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := s.deleteEdges(ctx, userID); err != nil {
		return fmt.Errorf("delete relations: %w", err)
	}
	if err := s.deleteNotifications(ctx, userID); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if err := s.otp.DeleteByOwner(ctx, userID); err != nil {
		return fmt.Errorf("delete verifications: %w", err)
	}
	if err := s.pending.DeleteEmailChange(ctx, userID); err != nil {
		slog.Warn("could not clear pending email change", "user_id", userID, "err", err)
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if u.AvatarKey != nil {
		s.dropMedia(ctx, *u.AvatarKey)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	slog.Info("account deleted", "user_id", userID)
	return nil
}

func (s *service) deleteComments(ctx context.Context, userID string) error {
	cs, err := s.comments.ListByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err := s.comments.Delete(ctx, c.CommentID); err != nil {
			return err
		}
		if err := s.counters.AddComments(ctx, c.PostID, -1); err != nil {
			return err
		}
	}
	return nil
}

// deleteEdges removes the account's likes and saves, who it follows and who
// follows it.
func (s *service) deleteEdges(ctx context.Context, userID string) error {
	likes, err := s.edges.ListFrom(ctx, domain.EdgeLike, userID)
	if err != nil {
		return err
	}
	for _, e := range likes {
		if err := s.counters.AddLikes(ctx, e.Target, -1); err != nil {
			return err
		}
	}
	saves, err := s.edges.ListFrom(ctx, domain.EdgeSave, userID)
	if err != nil {
		return err
	}
	following, err := s.edges.ListFrom(ctx, domain.EdgeFollow, userID)
	if err != nil {
		return err
	}
	followers, err := s.edges.ListTo(ctx, domain.EdgeFollow, userID)
	if err != nil {
		return err
	}
	all := make([]domain.Edge, 0, len(likes)+len(saves)+len(following)+len(followers))
	all = append(all, likes...)
	all = append(all, saves...)
	all = append(all, following...)
	all = append(all, followers...)
	return s.edges.DeleteAll(ctx, all)
}

func (s *service) deleteNotifications(ctx context.Context, userID string) error {
	received, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return err
	}
	sent, err := s.notifications.ListBySender(ctx, userID)
	if err != nil {
		return err
	}
	return s.notifications.DeleteAll(ctx, append(received, sent...))
}

func (s *service) pendingEmailChange(ctx context.Context, userID string) (*domain.PendingEmailChange, error) {
	p, err := s.pending.GetEmailChange(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoEmailChange
		}
		return nil, err
	}
	return p, nil
}

func (s *service) emailAvailable(ctx context.Context, email, userID string) error {
	other, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.UserID != userID:
		return &domain.CodedError{Code: domain.CodeEmailTaken, Message: "This email is already registered with another account."}
	}
	return nil
}

func (s *service) withAvatarURL(ctx context.Context, u *domain.User) {
	if u.AvatarKey == nil || *u.AvatarKey == "" {
		return
	}
	url, err := s.media.URL(ctx, *u.AvatarKey)
	if err != nil {
		slog.Warn("could not sign avatar url", "user_id", u.UserID, "err", err)
		return
	}
	u.AvatarURL = url
}

func (s *service) dropMedia(ctx context.Context, key string) {
	if err := s.media.Delete(ctx, key); err != nil {
		slog.Warn("could not delete media object", "key", key, "err", err)
	}
}
