package ranking

// SkippedUser is a player left out of a ranking because their scores
// could not be fetched.
type SkippedUser struct {
	OwnerID string `json:"owner_id"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// Report is a rank result together with the players it had to skip.
type Report struct {
	Result
	Skipped []SkippedUser `json:"skipped,omitempty"`
}

// Skip builds a SkippedUser from a fetch error.
func Skip(ownerID string, err error) SkippedUser {
	return SkippedUser{OwnerID: ownerID, Reason: err.Error(), Err: err}
}
