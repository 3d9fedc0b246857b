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

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNotificationsRecip),
		KeyConditionExpression:    aws.String("recipient_id = :r"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": strVal(recipientID)},
		ScanIndexForward:          aws.Bool(false),
	})
}

// ListUnread queries the recipient GSI and filters for is_read = false.
func (r *NotificationRepo) ListUnread(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexNotificationsRecip),
		KeyConditionExpression:   aws.String("recipient_id = :r"),
		FilterExpression:         aws.String("#read = :f"),
		ExpressionAttributeNames: map[string]string{"#read": fieldIsRead},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": strVal(recipientID),
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

func (r *NotificationRepo) ListBySender(ctx context.Context, senderID string) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNotificationsSender),
		KeyConditionExpression:    aws.String("sender_id = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": strVal(senderID)},
	})
}

func (r *NotificationRepo) ListByPost(ctx context.Context, postID string) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNotificationsPost),
		KeyConditionExpression:    aws.String("post_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strVal(postID)},
	})
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	return updateItem(ctx, r.client, r.tableName, strKey("notification_id", notificationID),
		map[string]interface{}{fieldIsRead: true})
}

// DeleteAll removes the given notifications, stopping at the first failure.
func (r *NotificationRepo) DeleteAll(ctx context.Context, ns []domain.Notification) error {
	for _, n := range ns {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("notification_id", n.NotificationID),
		})
		if err != nil {
			return fmt.Errorf("delete notification %s: %w", n.NotificationID, err)
		}
	}
	return nil
}

func (r *NotificationRepo) query(ctx context.Context, input *dynamodb.QueryInput) ([]domain.Notification, error) {
	items, err := queryAll(ctx, r.client, input, 0)
	if err != nil {
		return nil, err
	}
	var ns []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(items, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}
