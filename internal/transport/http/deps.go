package http

import (
	"github.com/socialx-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/socialx-api/internal/infrastructure/jwt"
	"github.com/socialx-api/internal/infrastructure/mail"
	redisinfra "github.com/socialx-api/internal/infrastructure/redis"
	s3infra "github.com/socialx-api/internal/infrastructure/s3"
	"github.com/socialx-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	PostRepo         *dynamo.PostRepo
	CommentRepo      *dynamo.CommentRepo
	EdgeRepo         *dynamo.EdgeRepo
	NotificationRepo *dynamo.NotificationRepo
	VerificationRepo *dynamo.VerificationRepo
	// PendingStore keeps sign-ups and email changes until their code is confirmed.
	PendingStore *redisinfra.PendingStore
	S3Store      *s3infra.Store
	Mailer       mail.Mailer
	Publisher    sns.Publisher
	JWTProvider  *jwtinfra.Provider
}
