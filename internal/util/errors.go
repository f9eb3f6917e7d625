package util

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")

	// specific lookups wrap ErrNotFound
	ErrHistoryNotFound = fmt.Errorf("history %w", ErrNotFound)
	ErrPromptNotFound  = fmt.Errorf("prompt %w", ErrNotFound)
)
