package domain

import "time"

// Edge kinds. Likes and saves point at posts, follows point at accounts.
const (
	EdgeLike   = "like"
	EdgeSave   = "save"
	EdgeFollow = "follow"
)

// Edge is a directed relation from an actor to a post or an account.
// Source is "<kind>#<actorID>" so one actor's edges of a kind share a partition.
type Edge struct {
	Source    string    `json:"source" dynamodbav:"source"`
	Target    string    `json:"target" dynamodbav:"target"`
	Kind      string    `json:"kind" dynamodbav:"kind"`
	ActorID   string    `json:"actor_id" dynamodbav:"actor_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

func EdgeSource(kind, actorID string) string {
	return kind + "#" + actorID
}
