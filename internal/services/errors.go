package services

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrRegistrationClosed = errors.New("registration is closed for this batch")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
)

// InputError reports a field value the caller has to fix.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, msg string) error { return &InputError{Field: field, Message: msg} }

// notFound maps gorm's miss onto ErrNotFound and wraps everything else.
func notFound(err error, what string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrapf(err, "load %s", what)
}

func isDuplicate(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
