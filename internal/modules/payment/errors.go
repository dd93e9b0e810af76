package payment

import "errors"

var (
	ErrValidation          = errors.New("draft is missing required fields")
	ErrInvalidState        = errors.New("draft is not collecting")
	ErrNotFound            = errors.New("draft not found")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)
