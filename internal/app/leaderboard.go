package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rks/internal/domain/ranking"
	"github.com/okian/rks/pkg/logger"
	"github.com/okian/rks/pkg/metrics"
)

// Page is the top of the leaderboard plus the size of the whole board.
type Page struct {
	Standings  []ranking.Standing    `json:"standings"`
	TotalUsers int                   `json:"total_users"`
	Skipped    []ranking.SkippedUser `json:"skipped,omitempty"`
}

// ComputeRank returns the owner's position among every player.
// A player whose scores cannot be fetched is skipped and reported, not fatal;
// only a failure to list players fails the call.
func (s *Service) ComputeRank(ctx context.Context, ownerID string) (ranking.Report, error) {
	standings, skipped, err := s.standings(ctx)
	if err != nil {
		return ranking.Report{}, err
	}
	return ranking.Report{Result: ranking.Locate(standings, ownerID), Skipped: skipped}, nil
}

// Leaderboard returns the top limit standings. limit <= 0 returns every player.
// The full board is handed to the publisher when one is configured.
func (s *Service) Leaderboard(ctx context.Context, limit int) (Page, error) {
	standings, skipped, err := s.standings(ctx)
	if err != nil {
		return Page{}, err
	}
	s.publishStandings(ctx, standings)

	page := Page{Standings: standings, TotalUsers: len(standings), Skipped: skipped}
	if limit > 0 && len(standings) > limit {
		page.Standings = standings[:limit]
	}
	return page, nil
}

// standings fetches every player concurrently and orders them.
func (s *Service) standings(ctx context.Context) ([]ranking.Standing, []ranking.SkippedUser, error) {
	start := time.Now()

	owners, err := s.store.ListAllUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}

	// index-addressed so store order survives concurrent fetches
	rated := make([]ranking.Rated, len(owners))
	failures := make([]error, len(owners))

	g := new(errgroup.Group)
	g.SetLimit(s.fetchConcurrency)
	for i, owner := range owners {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			bests, err := s.ChartBests(fctx, owner)
			if err != nil {
				failures[i] = err
				return nil
			}
			rated[i] = ranking.Rated{OwnerID: owner, Bests: bests}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("build standings: %w", err)
	}

	var skipped []ranking.SkippedUser
	for i, ferr := range failures {
		if ferr == nil {
			continue
		}
		skipped = append(skipped, ranking.Skip(owners[i], ferr))
		s.log().Warn(ctx, "skipping user in ranking",
			logger.String("owner", owners[i]),
			logger.Error(ferr),
		)
	}

	standings := ranking.Order(rated)
	metrics.RecordRatingComputation("leaderboard")
	metrics.RecordLeaderboardBuild(float64(time.Since(start).Microseconds())/1000.0, len(standings), len(skipped))
	s.log().Debug(ctx, "standings built",
		logger.Int("users", len(standings)),
		logger.Int("skipped", len(skipped)),
		logger.Duration("took", time.Since(start)),
	)
	return standings, skipped, nil
}

func (s *Service) publishStandings(ctx context.Context, standings []ranking.Standing) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, standings); err != nil {
		metrics.RecordPublishError()
		s.log().Warn(ctx, "leaderboard publish failed", logger.Error(err))
	}
}
