package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("score not found")
	ErrStoreUnavailable = errors.New("score store unavailable")
	ErrUnsupportedStore = errors.New("unsupported store driver")
)
