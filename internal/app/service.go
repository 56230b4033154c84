// Package service provides the application service that binds the score
// store to the rating engine and implements the dependencies required by
// the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/okian/rks/internal/adapters/publish"
	"github.com/okian/rks/internal/adapters/repository"
	"github.com/okian/rks/internal/domain/dedupe"
	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/rating"
	"github.com/okian/rks/internal/domain/songstats"
	"github.com/okian/rks/pkg/logger"
	"github.com/okian/rks/pkg/metrics"
)

// Service implements the API dependencies for the rating tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	publisher publish.Publisher
	cache     *ratingCache

	// Submission ids whose insert has not finished yet.
	pendingMu sync.Mutex
	pending   map[string]struct{}

	// Configuration
	fetchConcurrency int
	fetchTimeout     time.Duration
	dedupeSize       int
	cacheEnabled     bool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the score store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDeduper sets the submission deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithPublisher sets where freshly built leaderboards are pushed.
func WithPublisher(p publish.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithFetchConcurrency bounds parallel per-user fetches while ranking.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithFetchTimeout bounds a single user's fetch while ranking.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithDedupeSize sets the size of the submission dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRatingCache toggles per-user memoization of chart bests.
func WithRatingCache(enabled bool) Option {
	return func(s *Service) {
		s.cacheEnabled = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fetchConcurrency: runtime.NumCPU() * 4,
		fetchTimeout:     2 * time.Second,
		dedupeSize:       50_000,
		cacheEnabled:     true,
		pending:          make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	s.cache = newRatingCache(s.cacheEnabled)
	return s
}

// Start marks the service ready to serve.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("fetchConcurrency", s.fetchConcurrency),
		logger.Duration("fetchTimeout", s.fetchTimeout),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("ratingCache", s.cacheEnabled),
	)
	return nil
}

// Stop releases the store and publisher when they hold resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	for name, c := range map[string]any{"store": s.store, "publisher": s.publisher} {
		if closer, ok := c.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(ctx, "close failed", logger.String("component", name), logger.Error(err))
			}
		}
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// log returns the service logger, tolerating use before Start.
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Nop()
	}
	return l
}

// Scores returns the owner's rows in insertion order.
func (s *Service) Scores(ctx context.Context, ownerID string) ([]model.ScoreRecord, error) {
	return s.store.ListScoresForUser(ctx, ownerID)
}

// ChartBests returns the owner's best play per chart, highest rating first.
func (s *Service) ChartBests(ctx context.Context, ownerID string) ([]model.ChartBest, error) {
	if bests, ok := s.cache.get(ownerID); ok {
		metrics.RecordCacheHit()
		return bests, nil
	}
	metrics.RecordCacheMiss()

	version := s.cache.version(ownerID)
	records, err := s.store.ListScoresForUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("chart bests for %s: %w", ownerID, err)
	}
	byChart, skipped := rating.ReduceChecked(records)
	if skipped != nil {
		s.log().Warn(ctx, "skipped invalid records", logger.String("owner", ownerID), logger.Error(skipped))
	}
	bests := rating.Sorted(byChart)
	s.cache.put(ownerID, version, bests)
	return bests, nil
}

// OverallRating returns the owner's RKS.
func (s *Service) OverallRating(ctx context.Context, ownerID string) (float64, error) {
	bests, err := s.ChartBests(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	metrics.RecordRatingComputation("user")
	return rating.Aggregate(bests), nil
}

// RatingView is a player's rating with the charts behind it.
type RatingView struct {
	OwnerID  string            `json:"owner_id"`
	RKS      float64           `json:"rks"`
	Bests    []model.ChartBest `json:"bests"`
	Selected []model.ChartBest `json:"selected"`
}

// Rating returns the owner's RKS, every chart best and the selected b27+phi3 set.
func (s *Service) Rating(ctx context.Context, ownerID string) (RatingView, error) {
	bests, err := s.ChartBests(ctx, ownerID)
	if err != nil {
		return RatingView{}, err
	}
	metrics.RecordRatingComputation("user")
	return RatingView{
		OwnerID:  ownerID,
		RKS:      rating.Aggregate(bests),
		Bests:    bests,
		Selected: rating.Select(bests),
	}, nil
}

// Summary returns play and phi counts alongside the owner's RKS.
func (s *Service) Summary(ctx context.Context, ownerID string) (rating.Summary, error) {
	records, err := s.store.ListScoresForUser(ctx, ownerID)
	if err != nil {
		return rating.Summary{}, fmt.Errorf("summary for %s: %w", ownerID, err)
	}
	return rating.Summarize(records), nil
}

// SongStats returns per-chart play statistics across every player,
// ordered by chart.
func (s *Service) SongStats(ctx context.Context) ([]songstats.Stats, error) {
	records, err := s.store.ListAllScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("song stats: %w", err)
	}
	byChart := songstats.Compute(records)
	out := make([]songstats.Stats, 0, len(byChart))
	for _, st := range byChart {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chart.Less(out[j].Chart) })
	return out, nil
}

// ChartLeaders returns the highest score and accuracy holders of every chart,
// ordered by chart.
func (s *Service) ChartLeaders(ctx context.Context) ([]songstats.ChartLeaders, error) {
	records, err := s.store.ListAllScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("chart leaders: %w", err)
	}
	byChart := songstats.Leaders(records)
	out := make([]songstats.ChartLeaders, 0, len(byChart))
	for _, l := range byChart {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chart.Less(out[j].Chart) })
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	stats := map[string]any{
		"started":          s.started,
		"fetchConcurrency": s.fetchConcurrency,
		"fetchTimeoutMs":   s.fetchTimeout.Milliseconds(),
		"dedupeSize":       s.dedupeSize,
		"ratingCache":      s.cacheEnabled,
		"publishing":       s.publisher != nil,
	}
	s.mu.RUnlock()

	stats["seenSubmissions"] = s.deduper.Size()
	stats["cachedUsers"] = s.cache.len()
	if users, err := s.store.ListAllUsers(ctx); err == nil {
		stats["totalUsers"] = len(users)
	}
	return stats
}
