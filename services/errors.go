package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced investigation does not exist
var ErrNotFound = errors.New("investigation not found")

// ValidationError reports invalid caller input. Nothing is persisted when
// one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConsistencyError reports a violated contract between an investigation
// and its history. Diagnostic only; not expected in normal operation.
type ConsistencyError struct {
	InvestigationID uint
	Message         string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("investigation %d: %s", e.InvestigationID, e.Message)
}
