package catalog

import "errors"

var (
	ErrNotFound              = errors.New("package not found")
	ErrValidation            = errors.New("validation error")
	ErrAggregatorUnavailable = errors.New("inventory aggregator unavailable")
)
