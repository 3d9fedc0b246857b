package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/pkg/id"
)

// EventNotificationCreated is the event type published for each new notification.
const EventNotificationCreated = "notification.created"

type Store interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Event describes something one account did that another should hear about.
type Event struct {
	RecipientID string
	SenderID    string
	Type        string
	PostID      *string
	CommentID   *string
}

type Service interface {
	Notify(ctx context.Context, ev Event) error
	// List returns the recipient's notifications newest first and marks the
	// unread ones as read.
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type ServiceDeps struct {
	Store     Store
	Publisher Publisher
}

type service struct {
	store     Store
	publisher Publisher
}

func NewService(deps ServiceDeps) Service {
	return &service{store: deps.Store, publisher: deps.Publisher}
}

func (s *service) Notify(ctx context.Context, ev Event) error {
	// Nobody is told about their own actions.
	if ev.RecipientID == "" || ev.RecipientID == ev.SenderID {
		return nil
	}
	n := &domain.Notification{
		NotificationID: id.New(),
		RecipientID:    ev.RecipientID,
		SenderID:       ev.SenderID,
		Type:           ev.Type,
		PostID:         ev.PostID,
		CommentID:      ev.CommentID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Put(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventNotificationCreated, n); err != nil {
			slog.Warn("notification event not published", "notification_id", n.NotificationID, "err", err)
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	ns, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range ns {
		if ns[i].IsRead {
			continue
		}
		if err := s.store.MarkAsRead(ctx, ns[i].NotificationID); err != nil {
			return nil, err
		}
		ns[i].IsRead = true
	}
	return ns, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	if !n.IsRead {
		if err := s.store.MarkAsRead(ctx, notificationID); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	ns, err := s.store.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ns), nil
}
