// Package score converts a distance and a duration into a performance index
// that can be compared across distances, and inverts that index back into the
// time and pace a runner needs to reach it.
//
// The curve is a Purdy-style point table: every distance has a world-class
// baseline time, and points decay with the ratio of the actual time to that
// baseline:
//
//	x     = duration / baseline(distance)
//	index = 100 * x^-0.9 * exp(-0.05 * (x - 1))
//
// A baseline performance scores 100 and a 25:00 5K scores about 51.3.
package score

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for non-positive or non-finite distances,
// durations and target indices.
var ErrInvalidInput = errors.New("invalid input")

const (
	// Scale is the index awarded for running exactly the baseline time.
	Scale = 100.0

	decayExponent = 0.9
	fadeRate      = 0.05

	// durationSlack absorbs solver noise when flooring to whole seconds.
	durationSlack = 1e-6
)

// PerformanceIndex scores a whole-second performance.
func PerformanceIndex(distanceMeters float64, durationSec int64) (float64, error) {
	if durationSec <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %d s", ErrInvalidInput, durationSec)
	}
	return IndexAt(distanceMeters, float64(durationSec))
}

// IndexAt scores a performance with a fractional duration. It is the
// continuous form used by the inverse functions.
func IndexAt(distanceMeters, seconds float64) (float64, error) {
	if err := checkDistance(distanceMeters); err != nil {
		return 0, err
	}
	if !isFinite(seconds) || seconds <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %v s", ErrInvalidInput, seconds)
	}
	idx := indexForRatio(seconds / Baseline(distanceMeters))
	if idx == 0 {
		return 0, fmt.Errorf("%w: %v s over %v m is too slow to score", ErrInvalidInput, seconds, distanceMeters)
	}
	return idx, nil
}

// RequiredSeconds returns the exact duration at which distanceMeters scores
// targetIndex.
func RequiredSeconds(distanceMeters, targetIndex float64) (float64, error) {
	if err := checkDistance(distanceMeters); err != nil {
		return 0, err
	}
	if !isFinite(targetIndex) || targetIndex <= 0 {
		return 0, fmt.Errorf("%w: target index must be positive, got %v", ErrInvalidInput, targetIndex)
	}
	ratio, ok := solveRatio(targetIndex)
	seconds := ratio * Baseline(distanceMeters)
	if !ok || !isFinite(seconds) {
		return 0, fmt.Errorf("%w: no duration over %v m scores %v", ErrInvalidInput, distanceMeters, targetIndex)
	}
	return seconds, nil
}

// RequiredDuration returns the slowest whole-second duration that still
// reaches targetIndex over distanceMeters.
func RequiredDuration(distanceMeters, targetIndex float64) (int64, error) {
	seconds, err := RequiredSeconds(distanceMeters, targetIndex)
	if err != nil {
		return 0, err
	}
	floored := math.Floor(seconds + durationSlack)
	if floored >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v s to score %v over %v m does not fit in whole seconds", ErrInvalidInput, seconds, targetIndex, distanceMeters)
	}
	whole := int64(floored)
	if whole < 1 {
		whole = 1
	}
	return whole, nil
}

// RequiredPace returns the pace in seconds per kilometre that covers
// distanceMeters in RequiredDuration.
func RequiredPace(distanceMeters, targetIndex float64) (float64, error) {
	duration, err := RequiredDuration(distanceMeters, targetIndex)
	if err != nil {
		return 0, err
	}
	return float64(duration) / (distanceMeters / 1000.0), nil
}

// indexForRatio is strictly decreasing in ratio for ratio > 0 until it
// underflows to zero somewhere past ratio 1.4e4.
func indexForRatio(ratio float64) float64 {
	return Scale * math.Pow(ratio, -decayExponent) * math.Exp(-fadeRate*(ratio-1))
}

func checkDistance(distanceMeters float64) error {
	if !isFinite(distanceMeters) || distanceMeters <= 0 {
		return fmt.Errorf("%w: distance must be positive, got %v m", ErrInvalidInput, distanceMeters)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
