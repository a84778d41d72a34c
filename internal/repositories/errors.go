package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Store error codes exposed to API clients.
const (
	CodeUniqueViolation = "UniqueViolation"
	CodeRecordNotFound  = "RecordNotFound"
)

// ErrNotFound is matched by errors.Is for any lookup or write that found
// no row.
var ErrNotFound = errors.New("record not found")

// StoreError is a known data-store failure that callers may report to the
// client with its code and metadata.
type StoreError struct {
	Code string
	Meta map[string]any
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *StoreError) Unwrap() error { return e.Err }

func notFound(cause string) *StoreError {
	return &StoreError{
		Code: CodeRecordNotFound,
		Meta: map[string]any{"cause": cause},
		Err:  ErrNotFound,
	}
}

// translate turns GORM errors into StoreError where the failure is known,
// and wraps everything else with op.
func translate(err error, op string, target ...string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound("record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &StoreError{
			Code: CodeUniqueViolation,
			Meta: map[string]any{"target": target},
			Err:  err,
		}
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
