package otp

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

var ten = big.NewInt(10)

// GenerateCode draws CodeLength independent uniform digits, so leading
// zeros are as likely as any other digit.
func GenerateCode() (string, error) {
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}

func isCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
