package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	runfit "github.com/lucasjlepore/ppi-coach"
	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/challenge"
	"github.com/lucasjlepore/ppi-coach/coach"
	"github.com/lucasjlepore/ppi-coach/runstore"
)

// replay seeds a coach from history, selects a challenge for the activity
// and streams the activity's samples through the live session.
func replay(activity *runfit.Activity, history []runstore.Record, cfg Coaching) (*SessionSummaryFile, []TraceRow, error) {
	if len(activity.Samples) == 0 {
		return nil, nil, fmt.Errorf("activity has no telemetry samples to replay")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var warnings []string
	self := activity.Record()
	seeds := make([]runstore.Record, 0, len(history))
	for _, r := range history {
		if r.ID == self.ID {
			warnings = append(warnings, fmt.Sprintf("history run %s is the replayed activity; skipped", r.ID))
			continue
		}
		seeds = append(seeds, r)
	}

	store := runstore.NewMemory()
	if _, err := store.UpsertAll(seeds); err != nil {
		return nil, nil, fmt.Errorf("store history: %w", err)
	}

	svc, err := coach.NewService(coach.Options{
		PaceToleranceSec:   cfg.PaceToleranceSec,
		ChallengeIncrement: cfg.ChallengeIncrement,
		Logger:             logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create coach: %w", err)
	}
	if _, err := svc.Seed(store, 0); err != nil {
		return nil, nil, err
	}
	statsBefore := svc.AllStats()

	options, err := svc.GenerateChallenges()
	if err != nil {
		return nil, nil, err
	}

	target, err := resolveBucket(cfg.Bucket, activity.Bucket)
	if err != nil {
		return nil, nil, err
	}
	if err := svc.SelectForBucket(target); err != nil {
		if cfg.Bucket != "" {
			return nil, nil, fmt.Errorf("select challenge: %w", err)
		}
		opt, ok := nearestChallenge(options, target)
		if !ok {
			return nil, nil, fmt.Errorf("select challenge: %w", err)
		}
		warnings = append(warnings, fmt.Sprintf("no %s challenge available; replaying against %s", target.Label(), opt.Bucket.Label()))
		if err := svc.SelectChallenge(opt); err != nil {
			return nil, nil, fmt.Errorf("select challenge: %w", err)
		}
	}
	selected, _ := svc.Selected.Load()

	trace := make([]TraceRow, 0, len(activity.Samples))
	zoneSeconds := map[string]int64{}
	var lastOffset int64
	for _, s := range activity.Samples {
		fb, err := svc.Update(s.DistanceMeters, s.OffsetSec, s.PaceSecPerKm)
		if err != nil {
			return nil, nil, fmt.Errorf("update session at %ds: %w", s.OffsetSec, err)
		}
		snap, _ := svc.Session.Load()
		if s.OffsetSec > lastOffset {
			zoneSeconds[fb.Zone.String()] += s.OffsetSec - lastOffset
			lastOffset = s.OffsetSec
		}
		trace = append(trace, TraceRow{
			OffsetSec:          s.OffsetSec,
			DistanceM:          snap.Live.DistanceMeters,
			DurationSec:        snap.Live.DurationSec,
			PaceSecPerKm:       fb.CurrentPace,
			TargetPaceSecPerKm: fb.TargetPace,
			PaceDifference:     fb.PaceDifference,
			Zone:               fb.Zone.String(),
			ProgressPct:        fb.ProgressPercent,
		})
	}

	result, err := svc.Complete()
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return nil, nil, fmt.Errorf("session did not start")
	}

	if _, err := store.UpsertAll([]runstore.Record{self}); err != nil {
		return nil, nil, fmt.Errorf("store replayed activity: %w", err)
	}
	all, err := store.ListSince(0)
	if err != nil {
		return nil, nil, err
	}
	nowMs := self.EndedAtEpochMs
	if nowMs == 0 {
		nowMs = time.Now().UnixMilli()
	}

	next, err := svc.GenerateChallenges()
	if err != nil {
		return nil, nil, err
	}

	summary := &SessionSummaryFile{
		Activity: ActivitySummary{
			SourceFile:      activity.FilePath,
			StartTime:       activity.StartTime,
			DistanceM:       activity.DistanceMeters,
			DurationS:       activity.DurationSec(),
			AvgPaceSecPerKm: activity.AvgPaceSecPerKm,
			AvgHRBPM:        activity.AvgHeartRate,
			PPI:             activity.PPI,
			Bucket:          activity.Bucket,
			PacingStrategy:  activity.Pacing.Strategy,
		},
		Challenge:      *selected,
		Score:          *result,
		BestBefore:     statsBefore[selected.Bucket].HistoricalBest,
		ZoneSeconds:    zoneSeconds,
		HistoryRuns:    len(seeds),
		StatsBefore:    statsBefore,
		StatsAfter:     svc.AllStats(),
		Bests:          runstore.ComputeBests(all, 0, nowMs),
		NextChallenges: next,
		Warnings:       warnings,
	}
	logger.Info("replay complete",
		"source", activity.FilePath,
		"ticks", len(trace),
		"ppi", result.PPI,
		"achieved", result.Achieved,
	)
	return summary, trace, nil
}

func resolveBucket(name string, fallback bucket.Bucket) (bucket.Bucket, error) {
	if name == "" {
		return fallback, nil
	}
	var b bucket.Bucket
	if err := b.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("challenge bucket: %w", err)
	}
	return b, nil
}

// nearestChallenge picks the option whose bucket is closest to target,
// preferring the shorter bucket on a tie.
func nearestChallenge(options []challenge.Option, target bucket.Bucket) (challenge.Option, bool) {
	best, found := challenge.Option{}, false
	bestGap := 0
	for _, opt := range options {
		gap := int(opt.Bucket) - int(target)
		if gap < 0 {
			gap = -gap
		}
		if !found || gap < bestGap {
			best, bestGap, found = opt, gap, true
		}
	}
	return best, found
}
