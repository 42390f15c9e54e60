package application

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/pkg/fieldmap"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNoFields       = errors.New("no recognized fields in payload")
	ErrInvalidID      = errors.New("invalid identifier")
	ErrNotFound       = errors.New("registrant not found")
	ErrConflict       = errors.New("registration number already exists")
	ErrAlreadyDeleted = errors.New("registrant already deleted")
	ErrUnavailable    = errors.New("store unavailable")
)

// translate maps repository and mapper failures onto service errors. Errors
// it does not recognize are returned unchanged and surface as internal.
func translate(err error) error {
	var fe *fieldmap.FieldError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrAlreadyDeleted):
		return ErrAlreadyDeleted
	case errors.Is(err, repo.ErrConflict):
		return ErrConflict
	case errors.Is(err, repo.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, fieldmap.ErrEmpty):
		return ErrNoFields
	case errors.As(err, &fe):
		return fmt.Errorf("%w: %s: %v", ErrValidation, fe.Key, fe.Err)
	default:
		return err
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
