package publish

import "errors"

// ErrPublish wraps every failed publication.
var ErrPublish = errors.New("publish leaderboard failed")
