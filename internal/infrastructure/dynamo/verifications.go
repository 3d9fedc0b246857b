package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/socialx-api/internal/domain"
)

// activePrefix keys the per-email pointer row that names the one code that
// may currently be confirmed. The row carries neither email nor owner_id,
// so it never shows up in either GSI.
const (
	activePrefix = "active#"
	fieldActive  = "active_id"
)

// VerificationRepo stores email verification codes.
//
// PK: verification_id. GSIs: email + created_at, owner_id (sparse). GSIs
// are eventually consistent, so every lookup that decides which code is
// live goes through the active pointer row with strongly consistent reads.
// The email GSI is only used to sweep leftovers.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func activeKey(email string) map[string]types.AttributeValue {
	return strKey("verification_id", activePrefix+email)
}

// putActiveInput writes the record and repoints the email's active row at
// it in one transaction.
func putActiveInput(table string, item map[string]types.AttributeValue, email, verificationID string) *dynamodb.TransactWriteItemsInput {
	pointer := activeKey(email)
	pointer[fieldActive] = strVal(verificationID)
	return &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(table), Item: item}},
			{Put: &types.Put{TableName: aws.String(table), Item: pointer}},
		},
	}
}

// consumeInput flips consumed to true only while the record exists, is
// unconsumed and has not expired at now. expires_at is stored in Unix
// seconds, so now is compared in the same unit.
func consumeInput(table, verificationID string, now time.Time) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 strKey("verification_id", verificationID),
		UpdateExpression:    aws.String("SET #c = :t"),
		ConditionExpression: aws.String("attribute_exists(verification_id) AND #c = :f AND #e > :now"),
		ExpressionAttributeNames: map[string]string{
			"#c": fieldConsumed,
			"#e": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	}
}

// deleteUnconsumedInput removes a record unless it was consumed meanwhile.
func deleteUnconsumedInput(table, verificationID string) *dynamodb.DeleteItemInput {
	return &dynamodb.DeleteItemInput{
		TableName:                 aws.String(table),
		Key:                       strKey("verification_id", verificationID),
		ConditionExpression:       aws.String("#c = :f"),
		ExpressionAttributeNames:  map[string]string{"#c": fieldConsumed},
		ExpressionAttributeValues: map[string]types.AttributeValue{":f": &types.AttributeValueMemberBOOL{Value: false}},
	}
}

// Put stores v and makes it the active code for its email.
func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationRecord) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, putActiveInput(r.tableName, item, v.Email, v.VerificationID))
	return err
}

// DeleteUnconsumedByEmail removes every unconsumed record for email,
// expired or not. Consumed records are kept as history. The active record
// is found through the pointer row, so one written a moment ago is never
// missed; the GSI sweep catches older leftovers.
func (r *VerificationRepo) DeleteUnconsumedByEmail(ctx context.Context, email string) error {
	active, err := r.active(ctx, email)
	switch {
	case err == nil:
		if err := r.deleteUnconsumed(ctx, active.VerificationID); err != nil {
			return fmt.Errorf("delete verification %s: %w", active.VerificationID, err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	leftovers, err := r.queryByEmail(ctx, email)
	if err != nil {
		return err
	}
	for _, v := range leftovers {
		if active != nil && v.VerificationID == active.VerificationID {
			continue
		}
		if err := r.deleteUnconsumed(ctx, v.VerificationID); err != nil {
			return fmt.Errorf("delete verification %s: %w", v.VerificationID, err)
		}
	}
	return nil
}

// FindUnconsumed returns the active record when it matches code, and owner
// when ownerID is non-nil. Expiry is not checked here.
func (r *VerificationRepo) FindUnconsumed(ctx context.Context, email, code string, ownerID *string) (*domain.VerificationRecord, error) {
	v, err := r.LatestUnconsumed(ctx, email, ownerID)
	if err != nil {
		return nil, err
	}
	if v.Code != code {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return v, nil
}

// LatestUnconsumed returns the active record for email. It matches on owner
// only when ownerID is non-nil.
func (r *VerificationRepo) LatestUnconsumed(ctx context.Context, email string, ownerID *string) (*domain.VerificationRecord, error) {
	v, err := r.active(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ownedBy(v, ownerID) {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return v, nil
}

// MarkConsumed flips consumed to true only if the record is still unconsumed
// and unexpired at now. A lost race or late call returns ErrConflict.
func (r *VerificationRepo) MarkConsumed(ctx context.Context, verificationID string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, consumeInput(r.tableName, verificationID, now))
	return consumeResult(err)
}

// consumeResult maps a failed consume condition to ErrConflict.
func consumeResult(err error) error {
	if isConditionFailed(err) {
		return fmt.Errorf("verification already consumed or expired: %w", domain.ErrConflict)
	}
	return err
}

// BindOwner sets the owner of a record created before the account existed.
func (r *VerificationRepo) BindOwner(ctx context.Context, verificationID, ownerID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("verification_id", verificationID),
		UpdateExpression:          aws.String("SET #o = :o"),
		ConditionExpression:       aws.String("attribute_exists(verification_id)"),
		ExpressionAttributeNames:  map[string]string{"#o": fieldOwnerID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":o": strVal(ownerID)},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return err
}

// DeleteByOwner removes every record bound to ownerID. A pointer row left
// naming a deleted record resolves to ErrNotFound.
func (r *VerificationRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexVerificationOwner),
		KeyConditionExpression:    aws.String("owner_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":o": strVal(ownerID)},
	}, 0)
	if err != nil {
		return err
	}
	for _, item := range items {
		id, ok := item["verification_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("verification_id", id.Value),
		})
		if err != nil {
			return fmt.Errorf("delete verification %s: %w", id.Value, err)
		}
	}
	return nil
}

// active follows the email's pointer row to an unconsumed record.
func (r *VerificationRepo) active(ctx context.Context, email string) (*domain.VerificationRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            activeKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	id, ok := out.Item[fieldActive].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	v, err := getItem[domain.VerificationRecord](ctx, r.client, r.tableName, strKey("verification_id", id.Value), "verification")
	if err != nil {
		return nil, err
	}
	if v.Consumed {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return v, nil
}

func (r *VerificationRepo) deleteUnconsumed(ctx context.Context, verificationID string) error {
	_, err := r.client.DeleteItem(ctx, deleteUnconsumedInput(r.tableName, verificationID))
	if isConditionFailed(err) {
		// Consumed or already gone: nothing left to clear.
		return nil
	}
	return err
}

// queryByEmail returns unconsumed records for email as the GSI currently
// sees them, newest first.
func (r *VerificationRepo) queryByEmail(ctx context.Context, email string) ([]domain.VerificationRecord, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexVerificationEmail),
		KeyConditionExpression:   aws.String("email = :e"),
		FilterExpression:         aws.String("#c = :f"),
		ExpressionAttributeNames: map[string]string{"#c": fieldConsumed},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": strVal(email),
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false),
	}, 0)
	if err != nil {
		return nil, err
	}
	var records []domain.VerificationRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ownedBy matches any owner when ownerID is nil.
func ownedBy(v *domain.VerificationRecord, ownerID *string) bool {
	if ownerID == nil {
		return true
	}
	return v.OwnerID != nil && *v.OwnerID == *ownerID
}
