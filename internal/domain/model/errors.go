package model

import "errors"

// ErrInvalidRecord marks a score record that must be rejected rather than clamped.
var ErrInvalidRecord = errors.New("invalid score record")
