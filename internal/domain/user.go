package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account together with its public profile.
type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Username      string    `json:"username" dynamodbav:"username"`
	UsernameLower string    `json:"-" dynamodbav:"username_lower"`
	Email         string    `json:"email" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	Role          string    `json:"role" dynamodbav:"role"`
	FirstName     string    `json:"first_name" dynamodbav:"first_name"`
	LastName      string    `json:"last_name" dynamodbav:"last_name"`
	Bio           string    `json:"bio" dynamodbav:"bio"`
	AvatarKey     *string   `json:"-" dynamodbav:"avatar_key"`
	AvatarURL     string    `json:"avatar_url,omitempty" dynamodbav:"-"`
	IsPrivate     bool      `json:"is_private" dynamodbav:"is_private"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	Enable        bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,username"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type UpdateSettingsRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=1000"`
	IsPrivate *bool   `json:"is_private"`
}

type EmailChangeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// Profile is the public view of an account as seen by another account.
type Profile struct {
	User           *User  `json:"user"`
	Posts          []Post `json:"posts"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}
