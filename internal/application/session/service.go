package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/pkg/id"
	pkgtoken "github.com/socialx-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const defaultRefreshTokenDuration = 30 * 24 * time.Hour

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

// Signer issues bearer tokens.
type Signer interface {
	Sign(userID, username, role, sessionID string) (string, error)
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	// Open starts a session for an account that was just authenticated by
	// other means, such as a confirmed registration code.
	Open(ctx context.Context, u *domain.User) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type ServiceDeps struct {
	Sessions        SessionStore
	Users           UserStore
	Signer          Signer
	RefreshTokenDur time.Duration
}

type service struct {
	sessions        SessionStore
	users           UserStore
	signer          Signer
	refreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	dur := deps.RefreshTokenDur
	if dur <= 0 {
		dur = defaultRefreshTokenDuration
	}
	return &service{
		sessions:        deps.Sessions,
		users:           deps.Users,
		signer:          deps.Signer,
		refreshTokenDur: dur,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		u, err = s.users.GetByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.Open(ctx, u)
}

func (s *service) Open(ctx context.Context, u *domain.User) (*LoginResult, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(u.UserID, u.Username, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return "", "", fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
		}
		return "", "", err
	}
	if sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	if !u.Enable {
		return "", "", fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, refreshToken, newToken, newExpiry); err != nil {
		return "", "", err
	}
	bearer, err := s.signer.Sign(u.UserID, u.Username, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}
