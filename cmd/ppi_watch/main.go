package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	runfit "github.com/lucasjlepore/ppi-coach"
	"github.com/lucasjlepore/ppi-coach/challenge"
	"github.com/lucasjlepore/ppi-coach/coach"
	"github.com/lucasjlepore/ppi-coach/internal/config"
	"github.com/lucasjlepore/ppi-coach/internal/inbox"
	"github.com/lucasjlepore/ppi-coach/pipeline"
	"github.com/lucasjlepore/ppi-coach/runstore"
)

func main() {
	var (
		configPath = flag.String("config", "", "Optional config.yaml")
		dir        = flag.String("dir", "", "FIT directory to seed from and watch (defaults to history.fit_dir)")
		settle     = flag.Duration("settle", inbox.DefaultSettle, "Quiet period before a new file is read")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--config config.yaml] [--dir runs/]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "ppi_watch failed: %v\n", err)
			os.Exit(1)
		}
	}
	if *dir != "" {
		cfg.History.FitDir = *dir
	}
	if cfg.History.FitDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *settle, logger); err != nil {
		logger.Error("ppi_watch failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, settle time.Duration, logger *slog.Logger) error {
	records, warnings, err := pipeline.LoadHistory(cfg.History.FitDir, "")
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("history file skipped", "detail", w)
	}

	store := runstore.NewMemory()
	if _, err := store.UpsertAll(records); err != nil {
		return err
	}

	svc, err := coach.NewService(coach.Options{
		PaceToleranceSec:   cfg.Coach.PaceToleranceSec,
		ChallengeIncrement: cfg.Coach.ChallengeIncrement,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	batches, cancel := svc.Challenges.Subscribe()
	defer cancel()
	go logChallenges(ctx, batches, logger)

	var sinceMs int64
	if cfg.History.WindowDays > 0 {
		sinceMs = time.Now().AddDate(0, 0, -cfg.History.WindowDays).UnixMilli()
	}
	if _, err := svc.Seed(store, sinceMs); err != nil {
		return err
	}
	if _, err := svc.GenerateChallenges(); err != nil {
		return err
	}
	logBests(store, cfg.History.WindowDays, logger)

	in, err := inbox.New(cfg.History.FitDir, settle, logger)
	if err != nil {
		return err
	}
	return in.Run(ctx, func(path string) {
		if err := ingest(path, store, svc, logger); err != nil {
			logger.Warn("activity skipped", "path", path, "err", err)
			return
		}
		logBests(store, cfg.History.WindowDays, logger)
	})
}

func ingest(path string, store runstore.Store, svc *coach.Service, logger *slog.Logger) error {
	a, err := runfit.AnalyzeFile(path)
	if err != nil {
		return err
	}
	if !a.Scored {
		return fmt.Errorf("no distance or time recorded")
	}
	rec := a.Record()
	if _, seen, err := store.GetByID(rec.ID); err != nil {
		return err
	} else if seen {
		logger.Debug("activity already recorded", "id", rec.ID)
		return nil
	}
	if _, err := store.UpsertAll([]runstore.Record{rec}); err != nil {
		return err
	}
	idx, err := svc.RecordRun(a.DistanceMeters, a.DurationSec())
	if err != nil {
		return err
	}
	logger.Info("activity recorded",
		"id", rec.ID,
		"bucket", a.Bucket.String(),
		"ppi", idx,
		"pacing", a.Pacing.Strategy,
	)
	_, err = svc.GenerateChallenges()
	return err
}

func logChallenges(ctx context.Context, batches <-chan []challenge.Option, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case opts, ok := <-batches:
			if !ok {
				return
			}
			for _, o := range opts {
				logger.Info("challenge",
					"bucket", o.Bucket.String(),
					"title", o.Title,
					"target_ppi", o.ExpectedPPI,
					"target_duration_sec", o.TargetDuration,
					"description", o.Description,
				)
			}
		}
	}
}

func logBests(store runstore.Store, windowDays int, logger *slog.Logger) {
	runs, err := store.ListSince(0)
	if err != nil {
		logger.Warn("list runs", "err", err)
		return
	}
	now := time.Now().UnixMilli()
	b := runstore.ComputeBests(runs, 0, now)
	attrs := []any{"runs", len(runs)}
	for _, f := range []struct {
		key string
		v   *int64
	}{
		{"best_5k_sec", b.Best5kSec},
		{"best_10k_sec", b.Best10kSec},
		{"best_half_sec", b.BestHalfSec},
		{"best_full_sec", b.BestFullSec},
	} {
		if f.v != nil {
			attrs = append(attrs, f.key, *f.v)
		}
	}
	if windowDays > 0 {
		if ppi, ok, err := store.HighestIndexInWindow(now, windowDays); err == nil && ok {
			attrs = append(attrs, "highest_ppi_window", ppi)
		}
	}
	logger.Info("personal bests", attrs...)
}
