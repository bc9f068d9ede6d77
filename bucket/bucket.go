// Package bucket classifies run distances into fixed bands and tracks the
// best performance index seen in each band.
package bucket

import (
	"fmt"
	"math"

	"github.com/lucasjlepore/ppi-coach/score"
)

// ErrInvalidInput is score.ErrInvalidInput so callers can test either name.
var ErrInvalidInput = score.ErrInvalidInput

// Bucket is one of the six fixed distance bands, ordered shortest first.
type Bucket int

const (
	ShortSprint Bucket = iota
	Sprint
	ShortRun
	MediumRun
	LongRun
	UltraRun

	count = int(UltraRun) + 1
)

type band struct {
	name  string
	label string
	minKm float64
	maxKm float64
}

// bands partitions [0, inf) as half-open [minKm, maxKm) ranges.
var bands = [count]band{
	ShortSprint: {name: "short_sprint", label: "Short Sprint", minKm: 0, maxKm: 1},
	Sprint:      {name: "sprint", label: "Sprint", minKm: 1, maxKm: 3},
	ShortRun:    {name: "short_run", label: "Short Run", minKm: 3, maxKm: 8},
	MediumRun:   {name: "medium_run", label: "Medium Run", minKm: 8, maxKm: 15},
	LongRun:     {name: "long_run", label: "Long Run", minKm: 15, maxKm: 25},
	UltraRun:    {name: "ultra_run", label: "Ultra Run", minKm: 25, maxKm: math.Inf(1)},
}

// All returns every bucket in declaration order.
func All() []Bucket {
	out := make([]Bucket, count)
	for i := range out {
		out[i] = Bucket(i)
	}
	return out
}

// Valid reports whether b is one of the declared buckets.
func (b Bucket) Valid() bool {
	return b >= 0 && int(b) < count
}

// MinKm is the inclusive lower bound of the band.
func (b Bucket) MinKm() float64 { return b.band().minKm }

// MaxKm is the exclusive upper bound of the band; +Inf for UltraRun.
func (b Bucket) MaxKm() float64 { return b.band().maxKm }

// Label is the display name, e.g. "Short Run".
func (b Bucket) Label() string { return b.band().label }

// String returns the snake_case name used in JSON and YAML.
func (b Bucket) String() string {
	if !b.Valid() {
		return fmt.Sprintf("bucket(%d)", int(b))
	}
	return b.band().name
}

// Contains reports whether distanceKm falls in [MinKm, MaxKm).
func (b Bucket) Contains(distanceKm float64) bool {
	return distanceKm >= b.MinKm() && distanceKm < b.MaxKm()
}

// RepresentativeMeters is the distance challenges in this band are set over:
// the midpoint of the band, or its lower bound for the open-ended UltraRun.
func (b Bucket) RepresentativeMeters() float64 {
	bd := b.band()
	if math.IsInf(bd.maxKm, 1) {
		return bd.minKm * 1000
	}
	return (bd.minKm + bd.maxKm) / 2 * 1000
}

// MarshalText implements encoding.TextMarshaler.
func (b Bucket) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("bucket: unknown value %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText accepts either the snake_case name or the display label.
func (b *Bucket) UnmarshalText(text []byte) error {
	s := string(text)
	for i, bd := range bands {
		if bd.name == s || bd.label == s {
			*b = Bucket(i)
			return nil
		}
	}
	return fmt.Errorf("bucket: unknown name %q", s)
}

func (b Bucket) band() band {
	if !b.Valid() {
		return band{}
	}
	return bands[b]
}

// Classify returns the bucket whose range contains distanceMeters. Distances
// at or beyond the last band's lower bound land in UltraRun.
func Classify(distanceMeters float64) (Bucket, error) {
	if math.IsNaN(distanceMeters) || distanceMeters < 0 {
		return 0, fmt.Errorf("%w: distance must be non-negative, got %v m", ErrInvalidInput, distanceMeters)
	}
	km := distanceMeters / 1000.0
	for i := count - 1; i > 0; i-- {
		if km >= bands[i].minKm {
			return Bucket(i), nil
		}
	}
	return ShortSprint, nil
}

// Lookup finds a bucket by its exact, case-sensitive display label.
func Lookup(label string) (Bucket, bool) {
	for i, bd := range bands {
		if bd.label == label {
			return Bucket(i), true
		}
	}
	return 0, false
}
