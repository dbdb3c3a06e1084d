package domain

import "errors"

// Error kinds shared across the service. Handlers translate these into
// HTTP statuses with errors.Is, so repositories and services wrap them
// with fmt.Errorf("...: %w", Err...).
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)
