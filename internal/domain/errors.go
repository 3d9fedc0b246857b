package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Verification outcomes. ErrCodeNotFound deliberately covers a wrong code,
// an already consumed code and a code that was never issued.
var (
	ErrCodeNotFound   = errors.New("verification code not found")
	ErrCodeExpired    = errors.New("verification code expired")
	ErrDeliveryFailed = errors.New("verification email delivery failed")
)

// CodedError is a client input error carrying a stable machine-readable code,
// such as "username_taken". It unwraps to ErrBadRequest.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string     { return e.Message }
func (e *CodedError) ErrorCode() string { return e.Code }
func (e *CodedError) Unwrap() error     { return ErrBadRequest }

// Codes for uniqueness failures.
const (
	CodeUsernameTaken = "username_taken"
	CodeEmailTaken    = "email_taken"
)
