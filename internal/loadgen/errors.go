package loadgen

import "errors"

var (
	// ErrUnhealthy is returned when the service does not answer /healthz with 200.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrMismatch is returned when the served leaderboard disagrees with local ratings.
	ErrMismatch = errors.New("leaderboard mismatch")
	// ErrSubmission is returned when plays could not be delivered.
	ErrSubmission = errors.New("submission failed")
	// ErrInvalidConfig is returned for unusable run settings.
	ErrInvalidConfig = errors.New("invalid load config")
)
