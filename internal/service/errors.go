package service

import (
	"errors"
	"fmt"

	"blogicum/internal/data"
	"blogicum/internal/policy"
)

// ValidationError reports input the caller has to correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// storeErr maps a missing record onto policy.ErrNotFound so callers only
// need to test for the policy taxonomy.
func storeErr(err error) error {
	if errors.Is(err, data.ErrNotFound) {
		return fmt.Errorf("%w: %w", policy.ErrNotFound, err)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, data.ErrNotFound) || errors.Is(err, policy.ErrNotFound)
}
