package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an asset, holding, or transaction id does not
// exist in the store.
var ErrNotFound = errors.New("not found")

// ErrPriceUnavailable signals that the external quote source could not
// produce a price. Callers degrade to a fallback value; this error is never
// fatal.
var ErrPriceUnavailable = errors.New("price unavailable")

// ValidationError rejects a mutation before it touches the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
