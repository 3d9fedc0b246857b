package validate

import (
	"errors"
	"testing"

	"github.com/socialx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleCode(t *testing.T, err error) string {
	t.Helper()
	var re *RuleError
	require.True(t, errors.As(err, &re), "expected *RuleError, got %v", err)
	return re.Code
}

func TestUsername_Valid(t *testing.T) {
	for _, name := range []string{"abc", "alice", "a.b_c", "Bob99", "x1.y2_z3", "abcdefghijklmnopqrstuvwxyz1234"} {
		assert.NoError(t, Username(name), name)
	}
}

func TestUsername_Rules(t *testing.T) {
	cases := map[string]string{
		"1abc":    CodeInvalidStart,
		"_abc":    CodeInvalidStart,
		".abc":    CodeInvalidStart,
		"ab":      CodeTooShort,
		"":        CodeTooShort,
		"a..b":    CodeConsecutiveSpecial,
		"a__b":    CodeConsecutiveSpecial,
		"abc.":    CodeInvalidEnd,
		"abc_":    CodeInvalidEnd,
		"ab-c":    CodeInvalidCharacters,
		"ab c":    CodeInvalidCharacters,
		"abcé":    CodeInvalidCharacters,
		"abcdefghijklmnopqrstuvwxyz12345": CodeTooLong,
	}
	for name, want := range cases {
		assert.Equal(t, want, ruleCode(t, Username(name)), name)
	}
}

func TestUsername_CharactersCheckedBeforeLength(t *testing.T) {
	// "a-" is both too short and contains an invalid character.
	assert.Equal(t, CodeInvalidCharacters, ruleCode(t, Username("a-")))
}

func TestUsername_NonASCIILeadingLetterIsACharsetError(t *testing.T) {
	for _, name := range []string{"éabc", "Ωmega", "ß"} {
		assert.Equal(t, CodeInvalidCharacters, ruleCode(t, Username(name)), name)
	}
	assert.Equal(t, CodeInvalidStart, ruleCode(t, Username("1éabc")))
}

func TestStruct_UsernameTagReturnsRuleError(t *testing.T) {
	type req struct {
		Username string `validate:"required,username"`
	}
	err := Struct(&req{Username: "a..b"})
	assert.Equal(t, CodeConsecutiveSpecial, ruleCode(t, err))
}

func TestStruct_OtherTagsJoined(t *testing.T) {
	type req struct {
		Email string `validate:"required,email"`
	}
	err := Struct(&req{Email: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Email' failed 'email'")
}

func TestErrorsUnwrapToBadRequest(t *testing.T) {
	assert.ErrorIs(t, Username("1abc"), domain.ErrBadRequest)

	err := Struct(struct {
		Email string `validate:"required,email"`
	}{Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
