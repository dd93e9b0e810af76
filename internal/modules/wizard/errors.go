package wizard

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("draft is not collecting")
	ErrNotFound     = errors.New("draft not found")
)
