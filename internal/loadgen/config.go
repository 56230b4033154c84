// Package loadgen drives a running server with generated plays and checks
// the leaderboard it serves against ratings computed locally.
package loadgen

import (
	"runtime"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Users         int           // Number of distinct players
	PlaysPerUser  int           // Plays generated for each player
	DuplicateRate float64       // Fraction of plays resent with the same submission id
	TopN          int           // Leaderboard entries to fetch and verify
	Workers       int           // Concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	Seed          uint64        // Generator seed; runs with equal seeds produce equal plays
	OutputFile    string        // Optional JSON dump of generated plays
	Verbose       bool          // Log every failed request
}

// DefaultConfig returns the settings used by cmd/rks-loadgen without flags.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:9080",
		Users:         200,
		PlaysPerUser:  40,
		DuplicateRate: 0.05,
		TopN:          50,
		Workers:       runtime.NumCPU() * 2,
		Timeout:       30 * time.Second,
		Seed:          1,
	}
}

// Play is one POST /scores body.
type Play struct {
	SubmissionID     string  `json:"submission_id"`
	OwnerID          string  `json:"owner_id"`
	Song             string  `json:"song"`
	Difficulty       string  `json:"difficulty"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Score            int     `json:"score"`
	Accuracy         float64 `json:"accuracy"`
}

// Stats holds run statistics.
type Stats struct {
	PlaysGenerated  int
	Submitted       int
	Created         int
	Duplicate       int
	Failed          int
	EntriesVerified int
	StartTime       time.Time
	Duration        time.Duration
}
