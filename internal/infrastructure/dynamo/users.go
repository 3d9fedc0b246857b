package dynamo

import (
	"context"
	"errors"
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

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Uniqueness guard rows share the users table. Each one is keyed by the
// claimed username or email and records the owning account in guard_owner.
// They carry neither username_lower nor email, so the GSIs never see them,
// and the Search scan filters them out on enable.
const (
	guardUsernamePrefix = "unique#username#"
	guardEmailPrefix    = "unique#email#"
	fieldGuardOwner     = "guard_owner"
)

func usernameGuardKey(username string) map[string]types.AttributeValue {
	return strKey("user_id", guardUsernamePrefix+strings.ToLower(username))
}

func emailGuardKey(email string) map[string]types.AttributeValue {
	return strKey("user_id", guardEmailPrefix+strings.ToLower(email))
}

func guardPut(table string, key map[string]types.AttributeValue, userID string) *types.Put {
	key[fieldGuardOwner] = strVal(userID)
	return &types.Put{
		TableName:           aws.String(table),
		Item:                key,
		ConditionExpression: aws.String("attribute_not_exists(user_id) OR #g = :u"),
		ExpressionAttributeNames: map[string]string{
			"#g": fieldGuardOwner,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": strVal(userID),
		},
	}
}

// createUserInput writes the account and claims its username and email in
// one transaction, so two concurrent sign-ups cannot both take a name.
func createUserInput(table string, item map[string]types.AttributeValue, u *domain.User) *dynamodb.TransactWriteItemsInput {
	return &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(user_id)"),
			}},
			{Put: guardPut(table, usernameGuardKey(u.Username), u.UserID)},
			{Put: guardPut(table, emailGuardKey(u.Email), u.UserID)},
		},
	}
}

// changeEmailInput moves the email claim from oldEmail to the address in
// updates and applies updates to the account, all or nothing.
func changeEmailInput(table, userID, oldEmail, newEmail string, ue updateExpr) *dynamodb.TransactWriteItemsInput {
	items := []types.TransactWriteItem{
		{Put: guardPut(table, emailGuardKey(newEmail), userID)},
		{Update: &types.Update{
			TableName:                 aws.String(table),
			Key:                       strKey("user_id", userID),
			UpdateExpression:          aws.String(ue.Expr),
			ConditionExpression:       aws.String("attribute_exists(user_id)"),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		}},
	}
	if !strings.EqualFold(oldEmail, newEmail) {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(table),
			Key:       emailGuardKey(oldEmail),
		}})
	}
	return &dynamodb.TransactWriteItemsInput{TransactItems: items}
}

// deleteUserInput removes the account together with its claims.
func deleteUserInput(table string, u *domain.User) *dynamodb.TransactWriteItemsInput {
	del := func(key map[string]types.AttributeValue) types.TransactWriteItem {
		return types.TransactWriteItem{Delete: &types.Delete{TableName: aws.String(table), Key: key}}
	}
	return &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			del(strKey("user_id", u.UserID)),
			del(usernameGuardKey(u.Username)),
			del(emailGuardKey(u.Email)),
		},
	}
}

// Create inserts a new account. It fails with ErrConflict if the id is
// taken or another account already claimed the username or email.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.UsernameLower = strings.ToLower(u.Username)
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, createUserInput(r.tableName, item, u))
	if isConditionFailed(err) {
		return fmt.Errorf("user exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return getItem[domain.User](ctx, r.client, r.tableName, strKey("user_id", userID), "user")
}

// GetByUsername matches case-insensitively.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return firstByIndex[domain.User](ctx, r.client, r.tableName, indexUsername, "username_lower", strings.ToLower(username), "user")
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return firstByIndex[domain.User](ctx, r.client, r.tableName, indexEmail, "email", strings.ToLower(email), "user")
}

// Update applies a partial update. A change of email also moves the email
// claim and fails with ErrConflict if the new address is already claimed.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	newEmail, ok := updates[fieldEmail].(string)
	if !ok {
		return updateItem(ctx, r.client, r.tableName, strKey("user_id", userID), updates)
	}
	u, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, changeEmailInput(r.tableName, userID, u.Email, newEmail, ue))
	if isConditionFailed(err) {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	return err
}

// Delete removes the account and releases its username and email.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	u, err := r.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, deleteUserInput(r.tableName, u))
	return err
}

// Search returns up to limit enabled accounts whose username contains q,
// ignoring case, ordered by username.
func (r *UserRepo) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("contains(username_lower, :q) AND #en = :t"),
		ExpressionAttributeNames: map[string]string{
			"#en": fieldEnable,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": strVal(strings.ToLower(q)),
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UsernameLower < users[j].UsernameLower })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
