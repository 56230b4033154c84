package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rks/internal/loadgen"
	"github.com/okian/rks/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	cfg := loadgen.DefaultConfig()
	flag.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	flag.IntVar(&cfg.Users, "users", cfg.Users, "Number of distinct players")
	flag.IntVar(&cfg.PlaysPerUser, "plays", cfg.PlaysPerUser, "Plays generated per player")
	flag.Float64Var(&cfg.DuplicateRate, "dup-rate", cfg.DuplicateRate, "Fraction of plays resent with the same submission id")
	flag.IntVar(&cfg.TopN, "top", cfg.TopN, "Leaderboard entries to verify")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent submitters")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Generator seed")
	flag.StringVar(&cfg.OutputFile, "output", "", "Write generated plays to this JSON file")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Log every failed request")
	format := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	if err := logger.InitWith(os.Stdout, *format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	if _, err := loadgen.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
