package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrInvalidImport reports an export file that cannot be read.
	ErrInvalidImport = errors.New("invalid import data")
	// ErrDuplicateSubmission reports a submission id seen before. The score
	// was stored by the earlier call.
	ErrDuplicateSubmission = errors.New("duplicate submission")
	// ErrSubmissionPending reports a submission id whose first attempt is
	// still being stored. Its outcome is unknown, so the caller should retry.
	ErrSubmissionPending = errors.New("submission pending")
)
