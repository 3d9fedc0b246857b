package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/socialx-api/internal/domain"
)

// Username rule codes.
const (
	CodeInvalidStart       = "invalid_start"
	CodeInvalidCharacters  = "invalid_characters"
	CodeTooShort           = "too_short"
	CodeTooLong            = "too_long"
	CodeConsecutiveSpecial = "consecutive_special"
	CodeInvalidEnd         = "invalid_end"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
)

// RuleError reports which username rule failed.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string     { return e.Message }
func (e *RuleError) ErrorCode() string { return e.Code }
func (e *RuleError) Unwrap() error     { return domain.ErrBadRequest }

// Username checks the account name rules in order: leading letter, allowed
// characters, length, no doubled "." or "_", no trailing "." or "_".
func Username(name string) error {
	if name == "" {
		return &RuleError{Code: CodeTooShort, Message: "Username must be at least 3 characters long."}
	}
	// A non-ASCII letter up front is a charset problem, not a bad start.
	if first, _ := utf8.DecodeRuneInString(name); !unicode.IsLetter(first) {
		return &RuleError{Code: CodeInvalidStart, Message: "Username must start with a letter (a-z or A-Z)."}
	}
	for _, r := range name {
		if !isASCIILetter(r) && !isASCIIDigit(r) && r != '.' && r != '_' {
			return &RuleError{Code: CodeInvalidCharacters, Message: "Username can only contain letters, numbers, dots (.), and underscores (_)."}
		}
	}
	if len(name) < usernameMinLen {
		return &RuleError{Code: CodeTooShort, Message: "Username must be at least 3 characters long."}
	}
	if len(name) > usernameMaxLen {
		return &RuleError{Code: CodeTooLong, Message: "Username cannot be more than 30 characters long."}
	}
	if strings.Contains(name, "..") || strings.Contains(name, "__") {
		return &RuleError{Code: CodeConsecutiveSpecial, Message: "Username cannot contain consecutive dots or underscores."}
	}
	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, "_") {
		return &RuleError{Code: CodeInvalidEnd, Message: "Username cannot end with a dot or underscore."}
	}
	return nil
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
