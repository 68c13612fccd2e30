package service

import (
	"errors"
	"fmt"

	"talentgrid/backend/internal/security"
)

// Sentinel errors for the auth state machine; the HTTP handler maps them to
// status codes. Token NotFound and Expired share ErrTokenInvalid so callers
// cannot distinguish the two.
var (
	ErrDomainNotApproved = errors.New("email domain not approved for signup")
	ErrEmailTaken        = errors.New("email already taken")
	ErrUserExists        = errors.New("user already exists")
	ErrTokenInvalid      = errors.New("invalid or expired token")
	ErrBadCredential     = errors.New("invalid credentials")
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrWrongCode         = errors.New("wrong verification code")
	ErrSameEmail         = errors.New("new email must differ from current email")
)

// ValidationError carries field-level policy violations; the handler renders
// them as a 400 with a {field, message} list.
type ValidationError struct {
	Fields []security.Violation
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", e.Fields[0].Field, e.Fields[0].Message)
}

func validationErr(field, message string) error {
	return &ValidationError{Fields: []security.Violation{{Field: field, Message: message}}}
}
