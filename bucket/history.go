package bucket

import (
	"fmt"

	"github.com/lucasjlepore/ppi-coach/score"
)

// Stats is the best index observed for one bucket.
type Stats struct {
	Bucket         Bucket  `json:"bucket" yaml:"bucket"`
	HistoricalBest float64 `json:"historical_best" yaml:"historical_best"`
	HasData        bool    `json:"has_data" yaml:"has_data"`
}

// History is the per-bucket ledger of best performance indices.
//
// History has a single owner: it is not safe for concurrent mutation.
// Stats values are replaced whole, never edited in place, so a copy returned
// by AllStats is always internally consistent.
type History struct {
	stats [count]Stats
}

// NewHistory returns a History with every bucket present and empty.
func NewHistory() *History {
	h := &History{}
	for i := range h.stats {
		h.stats[i] = Stats{Bucket: Bucket(i)}
	}
	return h
}

// RecordSession scores a completed session, files it under its bucket and
// returns the index whether or not it was a new best.
func (h *History) RecordSession(distanceMeters float64, durationSec int64) (float64, error) {
	idx, err := score.PerformanceIndex(distanceMeters, durationSec)
	if err != nil {
		return 0, fmt.Errorf("record session: %w", err)
	}
	b, err := Classify(distanceMeters)
	if err != nil {
		return 0, fmt.Errorf("record session: %w", err)
	}

	current := h.stats[b]
	if !current.HasData || idx > current.HistoricalBest {
		h.stats[b] = Stats{Bucket: b, HistoricalBest: idx, HasData: true}
	}
	return idx, nil
}

// Best returns the bucket's historical best, or 0 when it has no data.
func (h *History) Best(b Bucket) float64 {
	if !b.Valid() {
		return 0
	}
	return h.stats[b].HistoricalBest
}

// Stats returns the current stats for one bucket.
func (h *History) Stats(b Bucket) Stats {
	if !b.Valid() {
		return Stats{Bucket: b}
	}
	return h.stats[b]
}

// AllStats returns a copy of every bucket's stats in declaration order.
func (h *History) AllStats() []Stats {
	out := make([]Stats, count)
	copy(out, h.stats[:])
	return out
}
