package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/socialx-api/internal/application/otp"
	"github.com/socialx-api/internal/application/session"
	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/pkg/id"
	pkgtoken "github.com/socialx-api/internal/pkg/token"
	"github.com/socialx-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const defaultPendingTTL = 30 * time.Minute

// ErrNotFound means the ticket is unknown or its pending data expired.
// The client has to start over.
var ErrNotFound = fmt.Errorf("registration not found or expired: %w", domain.ErrNotFound)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type PendingStore interface {
	PutRegistration(ctx context.Context, ticket string, p *domain.PendingRegistration, ttl time.Duration) error
	GetRegistration(ctx context.Context, ticket string) (*domain.PendingRegistration, error)
	DeleteRegistration(ctx context.Context, ticket string) error
}

type SessionOpener interface {
	Open(ctx context.Context, u *domain.User) (*session.LoginResult, error)
}

// Pending describes an unfinished registration as shown to the client.
type Pending struct {
	Ticket         string `json:"ticket"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ExpiresIn      int    `json:"expires_in"`
	DeliveryFailed bool   `json:"delivery_failed"`
}

// Service creates accounts only after the email address has been confirmed
// with a one-time code. Until then the sign-up data lives in the pending store.
type Service interface {
	Start(ctx context.Context, req domain.RegisterRequest) (*Pending, error)
	Resend(ctx context.Context, ticket string) (*Pending, error)
	Status(ctx context.Context, ticket string) (*Pending, error)
	Confirm(ctx context.Context, ticket, code string) (*session.LoginResult, error)
	Abandon(ctx context.Context, ticket string) error
}

type ServiceDeps struct {
	Users      UserStore
	Pending    PendingStore
	OTP        otp.Service
	Sessions   SessionOpener
	PendingTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type service struct {
	users      UserStore
	pending    PendingStore
	otp        otp.Service
	sessions   SessionOpener
	pendingTTL time.Duration
	bcryptCost int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:      deps.Users,
		pending:    deps.Pending,
		otp:        deps.OTP,
		sessions:   deps.Sessions,
		pendingTTL: deps.PendingTTL,
		bcryptCost: deps.BcryptCost,
	}
	if s.pendingTTL <= 0 {
		s.pendingTTL = defaultPendingTTL
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	return s
}

// NormalizeEmail trims and lower-cases an address so lookups and codes key
// on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Start(ctx context.Context, req domain.RegisterRequest) (*Pending, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	ticket := pkgtoken.NewTicket()
	p := &domain.PendingRegistration{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.pending.PutRegistration(ctx, ticket, p, s.pendingTTL); err != nil {
		return nil, fmt.Errorf("store pending registration: %w", err)
	}
	return s.issue(ctx, ticket, p)
}

func (s *service) Resend(ctx context.Context, ticket string) (*Pending, error) {
	p, err := s.load(ctx, ticket)
	if err != nil {
		return nil, err
	}
	// Give the user a full window again.
	if err := s.pending.PutRegistration(ctx, ticket, p, s.pendingTTL); err != nil {
		return nil, fmt.Errorf("store pending registration: %w", err)
	}
	return s.issue(ctx, ticket, p)
}

func (s *service) Status(ctx context.Context, ticket string) (*Pending, error) {
	p, err := s.load(ctx, ticket)
	if err != nil {
		return nil, err
	}
	secs, err := s.otp.RemainingValiditySeconds(ctx, p.Email, nil)
	if err != nil {
		return nil, err
	}
	return &Pending{Ticket: ticket, Username: p.Username, Email: p.Email, ExpiresIn: secs}, nil
}

func (s *service) Confirm(ctx context.Context, ticket, code string) (*session.LoginResult, error) {
	p, err := s.load(ctx, ticket)
	if err != nil {
		return nil, err
	}
	record, err := s.otp.Confirm(ctx, p.Email, strings.TrimSpace(code), nil)
	if err != nil {
		return nil, err
	}

	// The name or address may have been claimed while the code was in flight.
	if err := s.checkAvailable(ctx, p.Username, p.Email); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Username:      p.Username,
		Email:         p.Email,
		PasswordHash:  p.PasswordHash,
		Role:          domain.RoleUser,
		EmailVerified: true,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := s.otp.BindOwner(ctx, record.VerificationID, u.UserID); err != nil {
		slog.Warn("could not bind verification to new account", "verification_id", record.VerificationID, "user_id", u.UserID, "err", err)
	}
	if err := s.pending.DeleteRegistration(ctx, ticket); err != nil {
		slog.Warn("could not clear pending registration", "user_id", u.UserID, "err", err)
	}
	slog.Info("account registered", "user_id", u.UserID)
	return s.sessions.Open(ctx, u)
}

func (s *service) Abandon(ctx context.Context, ticket string) error {
	return s.pending.DeleteRegistration(ctx, ticket)
}

func (s *service) issue(ctx context.Context, ticket string, p *domain.PendingRegistration) (*Pending, error) {
	out := &Pending{Ticket: ticket, Username: p.Username, Email: p.Email}
	secs, err := s.otp.Issue(ctx, p.Email, nil, p.Username)
	if err != nil {
		if !errors.Is(err, domain.ErrDeliveryFailed) {
			return nil, err
		}
		out.DeliveryFailed = true
	}
	out.ExpiresIn = secs
	return out, nil
}

func (s *service) load(ctx context.Context, ticket string) (*domain.PendingRegistration, error) {
	if ticket == "" {
		return nil, ErrNotFound
	}
	p, err := s.pending.GetRegistration(ctx, ticket)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *service) checkAvailable(ctx context.Context, username, email string) error {
	if err := available(ctx, s.users.GetByUsername, username); err != nil {
		if err == errTaken {
			return &domain.CodedError{Code: domain.CodeUsernameTaken, Message: "This username is already taken."}
		}
		return err
	}
	if err := available(ctx, s.users.GetByEmail, email); err != nil {
		if err == errTaken {
			return &domain.CodedError{Code: domain.CodeEmailTaken, Message: "This email is already registered."}
		}
		return err
	}
	return nil
}

var errTaken = errors.New("taken")

func available(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), key string) error {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return errTaken
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}
