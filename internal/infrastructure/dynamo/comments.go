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

// CommentRepo provides typed DynamoDB operations for the comments table.
type CommentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCommentRepo(client *dynamodb.Client, tableName string) *CommentRepo {
	return &CommentRepo{client: client, tableName: tableName}
}

func (r *CommentRepo) Put(ctx context.Context, c *domain.Comment) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByPost returns a post's comments, oldest first.
func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	return r.query(ctx, indexCommentsPost, "post_id", postID)
}

func (r *CommentRepo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Comment, error) {
	return r.query(ctx, indexCommentsAuthor, "author_id", authorID)
}

func (r *CommentRepo) Delete(ctx context.Context, commentID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("comment_id", commentID),
	})
	return err
}

// DeleteByPost removes every comment on postID.
func (r *CommentRepo) DeleteByPost(ctx context.Context, postID string) error {
	comments, err := r.ListByPost(ctx, postID)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if err := r.Delete(ctx, c.CommentID); err != nil {
			return fmt.Errorf("delete comment %s: %w", c.CommentID, err)
		}
	}
	return nil
}

func (r *CommentRepo) query(ctx context.Context, index, attr, value string) ([]domain.Comment, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		ScanIndexForward:          aws.Bool(true),
	}, 0)
	if err != nil {
		return nil, err
	}
	var comments []domain.Comment
	if err := attributevalue.UnmarshalListOfMaps(items, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
