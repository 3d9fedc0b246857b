package domain

import "time"

const (
	MaxPostTextLength    = 280
	MaxCommentTextLength = 500
)

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// Media is the single attachment a post may carry.
type Media struct {
	Key         string `json:"-" dynamodbav:"key"`
	Kind        string `json:"kind" dynamodbav:"kind"`
	ContentType string `json:"content_type" dynamodbav:"content_type"`
	Size        int64  `json:"size" dynamodbav:"size"`
	Hash        string `json:"hash" dynamodbav:"hash"`
}

type Post struct {
	PostID       string    `json:"id" dynamodbav:"post_id"`
	AuthorID     string    `json:"author_id" dynamodbav:"author_id"`
	Text         string    `json:"text" dynamodbav:"text"`
	TextLower    string    `json:"-" dynamodbav:"text_lower"`
	Media        *Media    `json:"media,omitempty" dynamodbav:"media,omitempty"`
	LikeCount    int       `json:"like_count" dynamodbav:"like_count"`
	CommentCount int       `json:"comment_count" dynamodbav:"comment_count"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`

	LikedByViewer bool `json:"liked" dynamodbav:"-"`
	SavedByViewer bool `json:"saved" dynamodbav:"-"`
}

type Comment struct {
	CommentID string    `json:"id" dynamodbav:"comment_id"`
	PostID    string    `json:"post_id" dynamodbav:"post_id"`
	AuthorID  string    `json:"author_id" dynamodbav:"author_id"`
	Text      string    `json:"text" dynamodbav:"text"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// SearchResult holds matches for a free-text query.
type SearchResult struct {
	Query string `json:"query"`
	Users []User `json:"users"`
	Posts []Post `json:"posts"`
}
