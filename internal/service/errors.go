package service

import (
	"errors"

	"gorm.io/gorm"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
	ErrUnauthorized   = errors.New("unauthorized")
)

// Error carries a kind and a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func invalid(msg string) error {
	return &Error{Kind: ErrInvalidRequest, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// translate maps translated gorm errors onto the service kinds. notFoundMsg
// is used for gorm.ErrRecordNotFound; other errors pass through unchanged.
func translate(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return conflict("Resource already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return conflict("Resource is referenced by other records")
	default:
		return err
	}
}
