// Package runstore holds completed run records and answers the few history
// queries the coach needs. Only an in-memory implementation is provided.
package runstore

import (
	"errors"
	"fmt"
	"math"
)

// Sources a Record can come from.
const (
	SourceGPX    = "GPX"
	SourceTCX    = "TCX"
	SourceFIT    = "FIT"
	SourceManual = "Manual"
)

// DefaultWindowDays is the look-back used for the "highest index lately"
// query.
const DefaultWindowDays = 90

const dayMs = 24 * 3600 * 1000

// ErrInvalidRecord is returned for records that cannot be stored.
var ErrInvalidRecord = errors.New("invalid run record")

// Record is one completed run.
type Record struct {
	ID               string   `json:"id"`
	Source           string   `json:"source"`
	StartedAtEpochMs int64    `json:"startedAtEpochMs"`
	EndedAtEpochMs   int64    `json:"endedAtEpochMs"`
	DistanceMeters   float64  `json:"distanceMeters"`
	ElapsedSeconds   int64    `json:"elapsedSeconds"`
	AvgPaceSecPerKm  float64  `json:"avgPaceSecPerKm"`
	AvgHR            *int     `json:"avgHr,omitempty"`
	PPI              *float64 `json:"ppi,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// Validate reports whether r can be stored.
func (r Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	case math.IsNaN(r.DistanceMeters) || math.IsInf(r.DistanceMeters, 0) || r.DistanceMeters < 0:
		return fmt.Errorf("%w: %s: distance %v", ErrInvalidRecord, r.ID, r.DistanceMeters)
	case r.ElapsedSeconds < 0:
		return fmt.Errorf("%w: %s: elapsed %d s", ErrInvalidRecord, r.ID, r.ElapsedSeconds)
	case r.EndedAtEpochMs != 0 && r.EndedAtEpochMs < r.StartedAtEpochMs:
		return fmt.Errorf("%w: %s: ends before it starts", ErrInvalidRecord, r.ID)
	}
	return nil
}

// Lister is the read side the coach seeds its history from.
type Lister interface {
	ListSince(sinceMs int64) ([]Record, error)
}

// Store is the run store contract.
type Store interface {
	Lister
	// UpsertAll inserts or replaces records by ID and returns how many
	// were stored. Nothing is stored if any record is invalid.
	UpsertAll(records []Record) (int, error)
	GetByID(id string) (Record, bool, error)
	DeleteByID(id string) (bool, error)
	// HighestIndexInWindow returns the best PPI among runs started within
	// days of nowMs; ok is false when no run in the window carries one.
	HighestIndexInWindow(nowMs int64, days int) (ppi float64, ok bool, err error)
}

// Bests are the fastest elapsed times at the standard race distances.
type Bests struct {
	Best5kSec            *int64   `json:"best5kSec,omitempty"`
	Best10kSec           *int64   `json:"best10kSec,omitempty"`
	BestHalfSec          *int64   `json:"bestHalfSec,omitempty"`
	BestFullSec          *int64   `json:"bestFullSec,omitempty"`
	HighestPPILast90Days *float64 `json:"highestPPILast90Days,omitempty"`
}

type raceWindow struct {
	min, max float64
}

// GPS distances are noisy, so a run counts for a race distance when it lands
// inside these windows.
var (
	window5k   = raceWindow{4900, 5100}
	window10k  = raceWindow{9900, 10100}
	windowHalf = raceWindow{20900, 21100}
	windowFull = raceWindow{41900, 42200}
)

// ComputeBests returns race bests over runs started at or after sinceMs,
// plus the highest PPI over the DefaultWindowDays before nowMs.
func ComputeBests(runs []Record, sinceMs, nowMs int64) Bests {
	var b Bests
	for _, r := range runs {
		if r.StartedAtEpochMs < sinceMs || r.ElapsedSeconds <= 0 {
			continue
		}
		b.Best5kSec = fastest(b.Best5kSec, window5k, r)
		b.Best10kSec = fastest(b.Best10kSec, window10k, r)
		b.BestHalfSec = fastest(b.BestHalfSec, windowHalf, r)
		b.BestFullSec = fastest(b.BestFullSec, windowFull, r)
	}
	if ppi, ok := HighestIndexInWindow(runs, nowMs, DefaultWindowDays); ok {
		b.HighestPPILast90Days = &ppi
	}
	return b
}

// HighestIndexInWindow scans runs for the best PPI among those started
// within days of nowMs.
func HighestIndexInWindow(runs []Record, nowMs int64, days int) (float64, bool) {
	cutoff := nowMs - int64(days)*dayMs
	best, found := 0.0, false
	for _, r := range runs {
		if r.StartedAtEpochMs < cutoff || r.PPI == nil {
			continue
		}
		if !found || *r.PPI > best {
			best, found = *r.PPI, true
		}
	}
	return best, found
}

func fastest(cur *int64, w raceWindow, r Record) *int64 {
	if r.DistanceMeters < w.min || r.DistanceMeters > w.max {
		return cur
	}
	if cur != nil && *cur <= r.ElapsedSeconds {
		return cur
	}
	v := r.ElapsedSeconds
	return &v
}
