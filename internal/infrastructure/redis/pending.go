package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/socialx-api/internal/domain"
)

const (
	registrationPrefix = "pending:registration:"
	emailChangePrefix  = "pending:email-change:"
)

// PendingStore keeps short-lived state between issuing a code and confirming it.
// Entries expire on their own; nothing here is durable.
type PendingStore struct {
	client redis.UniversalClient
}

func NewPendingStore(client redis.UniversalClient) *PendingStore {
	return &PendingStore{client: client}
}

func (s *PendingStore) PutRegistration(ctx context.Context, ticket string, p *domain.PendingRegistration, ttl time.Duration) error {
	return s.setJSON(ctx, registrationPrefix+ticket, p, ttl)
}

func (s *PendingStore) GetRegistration(ctx context.Context, ticket string) (*domain.PendingRegistration, error) {
	var p domain.PendingRegistration
	if err := s.getJSON(ctx, registrationPrefix+ticket, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PendingStore) DeleteRegistration(ctx context.Context, ticket string) error {
	return s.client.Del(ctx, registrationPrefix+ticket).Err()
}

func (s *PendingStore) PutEmailChange(ctx context.Context, p *domain.PendingEmailChange, ttl time.Duration) error {
	return s.setJSON(ctx, emailChangePrefix+p.UserID, p, ttl)
}

func (s *PendingStore) GetEmailChange(ctx context.Context, userID string) (*domain.PendingEmailChange, error) {
	var p domain.PendingEmailChange
	if err := s.getJSON(ctx, emailChangePrefix+userID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PendingStore) DeleteEmailChange(ctx context.Context, userID string) error {
	return s.client.Del(ctx, emailChangePrefix+userID).Err()
}

func (s *PendingStore) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *PendingStore) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Ping reports whether the backing Redis answers.
func (s *PendingStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
