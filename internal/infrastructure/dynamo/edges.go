package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/socialx-api/internal/domain"
)

// EdgeRepo stores likes, saves and follows.
// PK: source ("<kind>#<actor>"), SK: target. GSI target + source answers
// "who liked/saved/follows this" with begins_with on the kind prefix.
type EdgeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEdgeRepo(client *dynamodb.Client, tableName string) *EdgeRepo {
	return &EdgeRepo{client: client, tableName: tableName}
}

// Put creates the edge. It returns ErrConflict when it already exists.
func (r *EdgeRepo) Put(ctx context.Context, e *domain.Edge) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal edge: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#s)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "source",
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("edge exists: %w", domain.ErrConflict)
	}
	return err
}

// Delete removes the edge. It returns ErrNotFound when there was none.
func (r *EdgeRepo) Delete(ctx context.Context, kind, actorID, target string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("source", domain.EdgeSource(kind, actorID), "target", target),
		ConditionExpression: aws.String("attribute_exists(#s)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "source",
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("edge not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *EdgeRepo) Exists(ctx context.Context, kind, actorID, target string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("source", domain.EdgeSource(kind, actorID), "target", target),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// ListFrom returns the actor's edges of kind, e.g. the posts a user saved.
func (r *EdgeRepo) ListFrom(ctx context.Context, kind, actorID string) ([]domain.Edge, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#s = :s"),
		ExpressionAttributeNames:  map[string]string{"#s": "source"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": strVal(domain.EdgeSource(kind, actorID))},
	}, 0)
	if err != nil {
		return nil, err
	}
	return unmarshalEdges(items)
}

// ListTo returns edges of kind pointing at target, e.g. an account's followers.
func (r *EdgeRepo) ListTo(ctx context.Context, kind, target string) ([]domain.Edge, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexEdgesTarget),
		KeyConditionExpression:   aws.String("#t = :t AND begins_with(#s, :p)"),
		ExpressionAttributeNames: map[string]string{"#t": "target", "#s": "source"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": strVal(target),
			":p": strVal(kind + "#"),
		},
	}, 0)
	if err != nil {
		return nil, err
	}
	return unmarshalEdges(items)
}

// DeleteAll removes the given edges, stopping at the first failure.
func (r *EdgeRepo) DeleteAll(ctx context.Context, edges []domain.Edge) error {
	for _, e := range edges {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("source", e.Source, "target", e.Target),
		})
		if err != nil {
			return fmt.Errorf("delete edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	return nil
}

func unmarshalEdges(items []map[string]types.AttributeValue) ([]domain.Edge, error) {
	var edges []domain.Edge
	if err := attributevalue.UnmarshalListOfMaps(items, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}
