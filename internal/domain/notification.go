package domain

import "time"

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	RecipientID    string    `json:"recipient_id" dynamodbav:"recipient_id"`
	SenderID       string    `json:"sender_id" dynamodbav:"sender_id"`
	Type           string    `json:"type" dynamodbav:"type"`
	PostID         *string   `json:"post_id,omitempty" dynamodbav:"post_id,omitempty"`
	CommentID      *string   `json:"comment_id,omitempty" dynamodbav:"comment_id,omitempty"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}
