package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/socialx-api/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("user_id"), strAttr("username_lower"), strAttr("email"),
		},
		KeySchema: hashKey("user_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUsername, "username_lower", ""),
			gsi(indexEmail, "email", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Sessions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("session_id"), strAttr("user_id"), strAttr("refresh_token"),
		},
		KeySchema: hashKey("session_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexSessionsUser, "user_id", ""),
			gsi(indexRefreshToken, "refresh_token", ""),
		},
	})

	// No TTL here: verification records are removed only by the next issue
	// for the same email or by the account deletion cascade.
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Verifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("verification_id"), strAttr("email"), strAttr("owner_id"),
			{AttributeName: aws.String("created_at"), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: hashKey("verification_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexVerificationEmail, "email", "created_at"),
			gsi(indexVerificationOwner, "owner_id", ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Posts),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("post_id"), strAttr("author_id"), strAttr("created_at"),
		},
		KeySchema: hashKey("post_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexPostsAuthor, "author_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Comments),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("comment_id"), strAttr("post_id"), strAttr("author_id"), strAttr("created_at"),
		},
		KeySchema: hashKey("comment_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexCommentsPost, "post_id", "created_at"),
			gsi(indexCommentsAuthor, "author_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Edges),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("source"), strAttr("target"),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("source"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("target"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexEdgesTarget, "target", "source"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Notifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("notification_id"), strAttr("recipient_id"), strAttr("sender_id"),
			strAttr("post_id"), strAttr("created_at"),
		},
		KeySchema: hashKey("notification_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexNotificationsRecip, "recipient_id", "created_at"),
			gsi(indexNotificationsSender, "sender_id", ""),
			gsi(indexNotificationsPost, "post_id", ""),
		},
	})
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}
