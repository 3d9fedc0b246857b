package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/socialx-api/internal/domain"
)

// PostRepo provides typed DynamoDB operations for the posts table.
type PostRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPostRepo(client *dynamodb.Client, tableName string) *PostRepo {
	return &PostRepo{client: client, tableName: tableName}
}

func (r *PostRepo) Put(ctx context.Context, p *domain.Post) error {
	p.TextLower = strings.ToLower(p.Text)
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("post_id", postID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("post not found: %w", domain.ErrNotFound)
	}
	var p domain.Post
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("post_id", postID),
	})
	return err
}

// ListByAuthor returns the author's posts, newest first.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexPostsAuthor),
		KeyConditionExpression:    aws.String("author_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":a": strVal(authorID)},
		ScanIndexForward:          aws.Bool(false),
	}, 0)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := attributevalue.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Feed returns up to limit posts from every author, newest first.
func (r *PostRepo) Feed(ctx context.Context, limit int) ([]domain.Post, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)}, limit)
}

// Search returns up to limit posts whose text contains q, ignoring case.
func (r *PostRepo) Search(ctx context.Context, q string, limit int) ([]domain.Post, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String("contains(text_lower, :q)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":q": strVal(strings.ToLower(q))},
	}, limit)
}

func (r *PostRepo) AddLikes(ctx context.Context, postID string, delta int) error {
	return addCounter(ctx, r.client, r.tableName, strKey("post_id", postID), fieldLikeCount, delta)
}

func (r *PostRepo) AddComments(ctx context.Context, postID string, delta int) error {
	return addCounter(ctx, r.client, r.tableName, strKey("post_id", postID), fieldCommentCount, delta)
}

func (r *PostRepo) scan(ctx context.Context, input *dynamodb.ScanInput, limit int) ([]domain.Post, error) {
	items, err := scanAll(ctx, r.client, input)
	if err != nil {
		return nil, err
	}
	var posts []domain.Post
	if err := attributevalue.UnmarshalListOfMaps(items, &posts); err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func sortNewestFirst(posts []domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// UpdateContent replaces text and media without touching the counters.
// A nil media removes the attachment.
func (r *PostRepo) UpdateContent(ctx context.Context, postID, text string, media *domain.Media) error {
	updates := map[string]interface{}{
		"text":         text,
		"text_lower":   strings.ToLower(text),
		fieldUpdatedAt: time.Now().UTC(),
	}
	if media != nil {
		updates["media"] = media
	}
	if err := updateItem(ctx, r.client, r.tableName, strKey("post_id", postID), updates); err != nil {
		return err
	}
	if media != nil {
		return nil
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("post_id", postID),
		UpdateExpression:         aws.String("REMOVE #m"),
		ExpressionAttributeNames: map[string]string{"#m": "media"},
	})
	return err
}
