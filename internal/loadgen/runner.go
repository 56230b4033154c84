package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rks/internal/domain/ranking"
	"github.com/okian/rks/pkg/logger"
)

const outputFilePermission = 0o600

// Validate rejects settings Run cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: empty base url", ErrInvalidConfig)
	case c.Users < 1 || c.PlaysPerUser < 1:
		return fmt.Errorf("%w: users and plays per user must be positive", ErrInvalidConfig)
	case c.DuplicateRate < 0 || c.DuplicateRate > 1:
		return fmt.Errorf("%w: duplicate rate %v outside [0,1]", ErrInvalidConfig, c.DuplicateRate)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Run executes a complete load run against a fresh server: submit every
// generated play, then check the leaderboard and one player's rating.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("playsPerUser", cfg.PlaysPerUser),
		logger.Int("workers", cfg.Workers),
		logger.Int("topN", cfg.TopN))

	if err := checkHealth(ctx, c); err != nil {
		return stats, err
	}

	plays, unique := newGenerator(cfg.Seed).Generate(cfg.Users, cfg.PlaysPerUser, cfg.DuplicateRate)
	stats.PlaysGenerated = len(plays)

	if err := submit(ctx, c, cfg, plays, stats); err != nil {
		return stats, err
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d plays", ErrSubmission, stats.Failed, stats.Submitted)
	}
	if stats.Created != unique {
		log.Warn(ctx, "server was not fresh; created count differs",
			logger.Int("created", stats.Created), logger.Int("unique", unique))
	}

	expected := expectedStandings(plays[:unique])
	if err := checkLeaderboard(ctx, c, cfg.TopN, expected, stats); err != nil {
		return stats, err
	}
	if len(expected) > 0 {
		if err := checkRating(ctx, c, plays[:unique], expected[0].OwnerID); err != nil {
			return stats, err
		}
	}

	if cfg.OutputFile != "" {
		if err := savePlays(cfg.OutputFile, plays); err != nil {
			log.Warn(ctx, "failed to save plays", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "load run completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("verified", stats.EntriesVerified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("playsPerSecond", perSecond))
	return stats, nil
}

// checkHealth verifies the service is running.
func checkHealth(ctx context.Context, c *client) error {
	status, _, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// submit posts every play with at most cfg.Workers requests in flight.
func submit(ctx context.Context, c *client, cfg *Config, plays []Play, stats *Stats) error {
	log := logger.Get().Named("loadgen")
	var submitted, created, duplicate, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, p := range plays {
		g.Go(func() error {
			status, body, err := postPlay(gctx, c, p)
			submitted.Add(1)
			switch {
			case err != nil:
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "submit failed", logger.String("submission", p.SubmissionID), logger.Error(err))
				}
			case status == http.StatusCreated:
				created.Add(1)
			case status == http.StatusOK:
				duplicate.Add(1)
			default:
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "submit rejected", logger.String("submission", p.SubmissionID),
						logger.Int("status", status), logger.String("body", string(body)))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Created = int(created.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	return ctx.Err()
}

// pendingRetries bounds resends of a play whose submission id is still in flight.
const pendingRetries = 20

// postPlay submits p, resending while the server reports the id as pending.
func postPlay(ctx context.Context, c *client, p Play) (int, []byte, error) {
	for attempt := 1; ; attempt++ {
		status, body, err := c.postJSON(ctx, "/scores", p)
		if err != nil || status != http.StatusConflict || attempt == pendingRetries {
			return status, body, err
		}
		select {
		case <-ctx.Done():
			return status, body, ctx.Err()
		case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
		}
	}
}

type leaderboardPage struct {
	Standings  []ranking.Standing `json:"standings"`
	TotalUsers int                `json:"total_users"`
}

// checkLeaderboard fetches the top of the leaderboard and compares it with expected.
func checkLeaderboard(ctx context.Context, c *client, topN int, expected []ranking.Standing, stats *Stats) error {
	status, body, err := c.get(ctx, "/leaderboard?limit="+strconv.Itoa(topN))
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("fetch leaderboard: status %d: %s", status, body)
	}
	var page leaderboardPage
	if err := json.Unmarshal(body, &page); err != nil {
		return fmt.Errorf("decode leaderboard: %w", err)
	}
	if err := verifyLeaderboard(expected, page.Standings, page.TotalUsers, topN); err != nil {
		return err
	}
	stats.EntriesVerified = len(page.Standings)
	return nil
}

// checkRating compares one player's served RKS with the local value.
func checkRating(ctx context.Context, c *client, plays []Play, owner string) error {
	status, body, err := c.get(ctx, "/users/"+url.PathEscape(owner)+"/rating")
	if err != nil {
		return fmt.Errorf("fetch rating: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("fetch rating: status %d: %s", status, body)
	}
	var view struct {
		RKS float64 `json:"rks"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		return fmt.Errorf("decode rating: %w", err)
	}
	if want := overallRating(plays, owner); !near(view.RKS, want) {
		return fmt.Errorf("%w: %s rks %.6f, expected %.6f", ErrMismatch, owner, view.RKS, want)
	}
	return nil
}

// savePlays writes the generated plays as an indented JSON array.
func savePlays(path string, plays []Play) error {
	data, err := json.MarshalIndent(plays, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plays: %w", err)
	}
	return os.WriteFile(path, data, outputFilePermission)
}
