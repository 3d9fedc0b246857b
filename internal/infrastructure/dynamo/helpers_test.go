package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_ConfirmedEmailChange(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldEmailVerified: true,
		fieldEmail:         "new@socialx.dev",
	})
	require.NoError(t, err)

	// Attribute order follows the sorted field names, not map iteration.
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": fieldEmail, "#f1": fieldEmailVerified}, ue.Names)

	email, ok := ue.Values[":v0"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "new@socialx.dev", email.Value)
	verified, ok := ue.Values[":v1"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	assert.True(t, verified.Value)
}

func TestBuildUpdateExpr_ClearedAvatarBecomesNull(t *testing.T) {
	var none *string
	ue, err := buildUpdateExpr(map[string]interface{}{fieldAvatarKey: none})
	require.NoError(t, err)

	_, isNull := ue.Values[":v0"].(*types.AttributeValueMemberNULL)
	assert.True(t, isNull)
}

func TestBuildUpdateExpr_RotatedRefreshToken(t *testing.T) {
	exp := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
	updates := map[string]interface{}{
		fieldRefreshToken:     "rt-2",
		fieldRefreshExpiresAt: exp,
		fieldUpdatedAt:        exp,
	}
	first, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	second, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, first.Expr, second.Expr)
	assert.Equal(t, fieldRefreshExpiresAt, first.Names["#f0"])
	assert.Equal(t, fieldRefreshToken, first.Names["#f1"])
	assert.Equal(t, fieldUpdatedAt, first.Names["#f2"])
}

func TestBuildUpdateExpr_NothingToUpdate(t *testing.T) {
	_, err := buildUpdateExpr(nil)
	assert.ErrorContains(t, err, "no fields to update")
}

func TestCompositeKey_EdgeRow(t *testing.T) {
	key := compositeKey("source", "u1", "target", "like#p1")
	require.Len(t, key, 2)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, key["source"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "like#p1"}, key["target"])
}

func TestFirstKeyName_SingleAttributeKey(t *testing.T) {
	assert.Equal(t, "post_id", firstKeyName(strKey("post_id", "p1")))
	assert.Empty(t, firstKeyName(nil))
}
