package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/socialx-api/internal/domain"
)

// SessionRepo stores login sessions keyed by session_id. Each session holds
// exactly one live refresh token, reachable through the refresh_token GSI.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(session_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("session %s exists: %w", s.SessionID, domain.ErrConflict)
	}
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return getItem[domain.Session](ctx, r.client, r.tableName, strKey("session_id", sessionID), "session")
}

// Update applies a partial update to an existing session.
func (r *SessionRepo) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	return updateItem(ctx, r.client, r.tableName, strKey("session_id", sessionID), updates)
}

// GetByRefreshToken resolves a refresh token to its session. A disabled
// session is reported as ErrUnauthorized rather than returned.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	s, err := firstByIndex[domain.Session](ctx, r.client, r.tableName, indexRefreshToken, fieldRefreshToken, token, "session")
	if err != nil {
		return nil, err
	}
	if !s.Enable {
		return nil, fmt.Errorf("session %s logged out: %w", s.SessionID, domain.ErrUnauthorized)
	}
	return s, nil
}

// RotateRefreshToken swaps oldToken for newToken. The swap only happens
// while the session is enabled and still holds oldToken, so two clients
// racing with the same refresh token cannot both win.
func (r *SessionRepo) RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("session_id", sessionID),
		UpdateExpression:    aws.String("SET #rt = :new, #rx = :exp, #ua = :now"),
		ConditionExpression: aws.String("#rt = :old AND #en = :on"),
		ExpressionAttributeNames: map[string]string{
			"#rt": fieldRefreshToken,
			"#rx": fieldRefreshExpiresAt,
			"#ua": fieldUpdatedAt,
			"#en": fieldEnable,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": strVal(newToken),
			":old": strVal(oldToken),
			":exp": &types.AttributeValueMemberN{Value: fmt.Sprint(newExpiry)},
			":now": strVal(time.Now().UTC().Format(time.RFC3339Nano)),
			":on":  &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("refresh token already used: %w", domain.ErrUnauthorized)
	}
	return err
}

// DeleteByUser removes every session of userID. Used by the account cascade.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexSessionsUser),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
		ProjectionExpression:      aws.String("session_id"),
	}, 0)
	if err != nil {
		return err
	}
	for _, item := range items {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       map[string]types.AttributeValue{"session_id": item["session_id"]},
		})
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	return nil
}
