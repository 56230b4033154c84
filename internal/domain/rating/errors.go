package rating

import "errors"

// ErrInvalidJudgments is returned when judgment counts cannot describe a play.
var ErrInvalidJudgments = errors.New("invalid judgment counts")
