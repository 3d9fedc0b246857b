package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/infrastructure/mail"
	"github.com/socialx-api/internal/observability/metrics"
	"github.com/socialx-api/internal/pkg/id"
)

// Store persists verification records. FindUnconsumed and LatestUnconsumed
// match on owner only when ownerID is non-nil. MarkConsumed must be atomic:
// it succeeds at most once per record and never after expiry.
type Store interface {
	Put(ctx context.Context, v *domain.VerificationRecord) error
	DeleteUnconsumedByEmail(ctx context.Context, email string) error
	FindUnconsumed(ctx context.Context, email, code string, ownerID *string) (*domain.VerificationRecord, error)
	LatestUnconsumed(ctx context.Context, email string, ownerID *string) (*domain.VerificationRecord, error)
	MarkConsumed(ctx context.Context, verificationID string, now time.Time) error
	BindOwner(ctx context.Context, verificationID, ownerID string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// Service issues and confirms single-use email codes.
type Service interface {
	// Issue replaces any pending code for email with a fresh one, mails it
	// and reports how many seconds the new code stays valid. The record is
	// kept when delivery fails; the seconds are still reported and the error
	// wraps domain.ErrDeliveryFailed. The code is never returned.
	Issue(ctx context.Context, email string, ownerID *string, recipientName string) (int, error)
	// Confirm consumes the pending record matching email and code.
	Confirm(ctx context.Context, email, code string, ownerID *string) (*domain.VerificationRecord, error)
	// RemainingValiditySeconds reports how long the newest pending code for
	// email stays valid, or 0 when there is none.
	RemainingValiditySeconds(ctx context.Context, email string, ownerID *string) (int, error)
	BindOwner(ctx context.Context, verificationID, ownerID string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type ServiceDeps struct {
	Store  Store
	Mailer mail.Mailer
	// Now and NewCode default to time.Now and GenerateCode.
	Now     func() time.Time
	NewCode func() (string, error)
}

type service struct {
	store   Store
	mailer  mail.Mailer
	now     func() time.Time
	newCode func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:   deps.Store,
		mailer:  deps.Mailer,
		now:     deps.Now,
		newCode: deps.NewCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCode == nil {
		s.newCode = GenerateCode
	}
	return s
}

func (s *service) Issue(ctx context.Context, email string, ownerID *string, recipientName string) (int, error) {
	code, err := s.newCode()
	if err != nil {
		return 0, fmt.Errorf("generate code: %w", err)
	}
	if err := s.store.DeleteUnconsumedByEmail(ctx, email); err != nil {
		return 0, fmt.Errorf("clear pending codes: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	v := &domain.VerificationRecord{
		VerificationID: id.New(),
		OwnerID:        ownerID,
		Email:          email,
		Code:           code,
		CreatedAt:      now,
		ExpiresAt:      now.Add(domain.VerificationTTL),
	}
	if err := s.store.Put(ctx, v); err != nil {
		return 0, fmt.Errorf("store code: %w", err)
	}
	// Computed from the record just written rather than read back, so the
	// answer never depends on how fast the store converges.
	left := remainingSeconds(v.ExpiresAt, s.now())

	msg, err := verificationMessage(email, recipientName, code)
	if err != nil {
		return 0, fmt.Errorf("render verification email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.OTPIssuedTotal.WithLabelValues("failed").Inc()
		slog.Warn("verification email not delivered", "verification_id", v.VerificationID, "err", err)
		return left, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	metrics.OTPIssuedTotal.WithLabelValues("sent").Inc()
	slog.Info("verification code issued", "verification_id", v.VerificationID)
	return left, nil
}

func (s *service) Confirm(ctx context.Context, email, code string, ownerID *string) (*domain.VerificationRecord, error) {
	if !isCode(code) {
		metrics.OTPConfirmTotal.WithLabelValues("not_found").Inc()
		return nil, domain.ErrCodeNotFound
	}
	v, err := s.store.FindUnconsumed(ctx, email, code, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.OTPConfirmTotal.WithLabelValues("not_found").Inc()
			return nil, domain.ErrCodeNotFound
		}
		metrics.OTPConfirmTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find code: %w", err)
	}

	now := s.now()
	if v.Expired(now) {
		metrics.OTPConfirmTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrCodeExpired
	}
	if err := s.store.MarkConsumed(ctx, v.VerificationID, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Another request consumed it first, or it expired in between.
			metrics.OTPConfirmTotal.WithLabelValues("not_found").Inc()
			return nil, domain.ErrCodeNotFound
		}
		metrics.OTPConfirmTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("consume code: %w", err)
	}
	v.Consumed = true
	metrics.OTPConfirmTotal.WithLabelValues("ok").Inc()
	return v, nil
}

func (s *service) RemainingValiditySeconds(ctx context.Context, email string, ownerID *string) (int, error) {
	v, err := s.store.LatestUnconsumed(ctx, email, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return remainingSeconds(v.ExpiresAt, s.now()), nil
}

func (s *service) BindOwner(ctx context.Context, verificationID, ownerID string) error {
	return s.store.BindOwner(ctx, verificationID, ownerID)
}

func (s *service) DeleteByOwner(ctx context.Context, ownerID string) error {
	return s.store.DeleteByOwner(ctx, ownerID)
}

// remainingSeconds floors the time left and clamps it to [0, TTL].
func remainingSeconds(expiresAt, now time.Time) int {
	left := int(expiresAt.Sub(now) / time.Second)
	if left < 0 {
		return 0
	}
	if limit := int(domain.VerificationTTL / time.Second); left > limit {
		return limit
	}
	return left
}
