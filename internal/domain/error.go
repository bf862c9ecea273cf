package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrModelNotFound   = errors.New("model not found")
	ErrMissingAPIKey   = errors.New("api key not configured")
	ErrInvalidVoice    = errors.New("unknown speech voice")
)
