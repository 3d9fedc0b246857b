package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldUpdatedAt        = "updated_at"
	fieldIsRead           = "is_read"
	fieldConsumed         = "consumed"
	fieldOwnerID          = "owner_id"
	fieldEmail            = "email"
	fieldEmailVerified    = "email_verified"
	fieldAvatarKey        = "avatar_key"
	fieldLikeCount        = "like_count"
	fieldCommentCount     = "comment_count"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)

// GSI names shared by Bootstrap and the repos.
const (
	indexUsername            = "username_lower-index"
	indexEmail               = "email-index"
	indexSessionsUser        = "user_id-index"
	indexRefreshToken        = "refresh_token-index"
	indexVerificationEmail   = "email-created_at-index"
	indexVerificationOwner   = "owner_id-index"
	indexPostsAuthor         = "author_id-created_at-index"
	indexCommentsPost        = "post_id-created_at-index"
	indexCommentsAuthor      = "author_id-index"
	indexEdgesTarget         = "target-source-index"
	indexNotificationsRecip  = "recipient_id-created_at-index"
	indexNotificationsSender = "sender_id-index"
	indexNotificationsPost   = "post_id-index"
)
