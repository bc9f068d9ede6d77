// Package challenge derives "beat your own best" targets from a runner's
// per-bucket history.
package challenge

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/score"
)

// DefaultIncrement is the number of index points a challenge asks for above
// the bucket's historical best.
const DefaultIncrement = 2.0

// Surprise increments are drawn uniformly from [SurpriseMinIncrement,
// SurpriseMaxIncrement).
const (
	SurpriseMinIncrement = 1.0
	SurpriseMaxIncrement = 8.0
)

// Option is one generated challenge. Options are values and are never
// modified after generation.
type Option struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	TargetPace     float64       `json:"target_pace_sec_per_km"`
	TargetDuration int64         `json:"target_duration_sec"`
	TargetDistance float64       `json:"target_distance_m"`
	ExpectedPPI    float64       `json:"expected_ppi"`
	Bucket         bucket.Bucket `json:"bucket"`
}

// StatsSource is anything that can report per-bucket history, typically a
// *bucket.History.
type StatsSource interface {
	AllStats() []bucket.Stats
}

// Generator builds one challenge per bucket that has history.
type Generator struct {
	increment float64
	newID     func() string
}

// NewGenerator returns a Generator that targets historical best + increment.
// increment must be positive so every target beats the best it came from.
func NewGenerator(increment float64) (Generator, error) {
	if math.IsNaN(increment) || math.IsInf(increment, 0) || increment <= 0 {
		return Generator{}, fmt.Errorf("%w: challenge increment must be positive, got %v", score.ErrInvalidInput, increment)
	}
	return Generator{increment: increment, newID: uuid.NewString}, nil
}

// WithIDs returns a copy of g that mints option IDs with newID.
func (g Generator) WithIDs(newID func() string) Generator {
	g.newID = newID
	return g
}

// Increment reports the fixed increment in index points.
func (g Generator) Increment() float64 {
	return g.increment
}

// Generate returns a fresh batch ordered shortest bucket first. Buckets
// without data are skipped. src is only read.
func (g Generator) Generate(src StatsSource) ([]Option, error) {
	if g.increment <= 0 {
		return nil, fmt.Errorf("challenge: generator not initialised")
	}
	newID := g.newID
	if newID == nil {
		newID = uuid.NewString
	}

	var out []Option
	for _, st := range src.AllStats() {
		if !st.HasData {
			continue
		}
		target := st.HistoricalBest + g.increment
		meters := st.Bucket.RepresentativeMeters()

		duration, err := score.RequiredDuration(meters, target)
		if err != nil {
			return nil, fmt.Errorf("challenge for %s: %w", st.Bucket, err)
		}
		pace := float64(duration) / (meters / 1000.0)

		out = append(out, Option{
			ID:             newID(),
			Title:          titleFor(st.Bucket),
			Description:    fmt.Sprintf("Hold %s/km for %s to top your best %s equivalent", formatPace(pace), formatClock(duration), st.Bucket.Label()),
			TargetPace:     pace,
			TargetDuration: duration,
			TargetDistance: meters,
			ExpectedPPI:    target,
			Bucket:         st.Bucket,
		})
	}
	return out, nil
}

// Surprise picks a random bucket with data and asks for a random increment
// over its best. A runner with no history gets a random starter instead.
func (g Generator) Surprise(src StatsSource, rnd *rand.Rand) (Option, error) {
	if rnd == nil {
		return Option{}, fmt.Errorf("challenge: surprise needs a random source")
	}
	newID := g.newID
	if newID == nil {
		newID = uuid.NewString
	}

	var withData []bucket.Stats
	for _, st := range src.AllStats() {
		if st.HasData {
			withData = append(withData, st)
		}
	}
	if len(withData) == 0 {
		starters := Starter()
		opt := starters[rnd.Intn(len(starters))]
		opt.ID = newID()
		opt.Title = surpriseTitle
		return opt, nil
	}

	st := withData[rnd.Intn(len(withData))]
	increment := SurpriseMinIncrement + rnd.Float64()*(SurpriseMaxIncrement-SurpriseMinIncrement)
	target := st.HistoricalBest + increment
	meters := st.Bucket.RepresentativeMeters()

	duration, err := score.RequiredDuration(meters, target)
	if err != nil {
		return Option{}, fmt.Errorf("surprise for %s: %w", st.Bucket, err)
	}
	pace := float64(duration) / (meters / 1000.0)

	return Option{
		ID:             newID(),
		Title:          surpriseTitle,
		Description:    fmt.Sprintf("Hold %s/km for %s, a playful but beatable %s", formatPace(pace), formatClock(duration), st.Bucket.Label()),
		TargetPace:     pace,
		TargetDuration: duration,
		TargetDistance: meters,
		ExpectedPPI:    target,
		Bucket:         st.Bucket,
	}, nil
}

const surpriseTitle = "Surprise Me"

// Starter returns fixed baseline-setting runs for a runner with no history.
// The expected index of each is what the prescribed time scores.
func Starter() []Option {
	type seed struct {
		id     string
		title  string
		meters float64
		secs   int64
	}
	seeds := []seed{
		{id: "starter_sprint", title: "Short & Fierce", meters: 1000, secs: 270},
		{id: "starter_short_run", title: "Tempo Boost", meters: 5000, secs: 1500},
		{id: "starter_medium_run", title: "Ease Into It", meters: 10000, secs: 3300},
	}

	out := make([]Option, 0, len(seeds))
	for _, s := range seeds {
		b, _ := bucket.Classify(s.meters)
		expected, _ := score.PerformanceIndex(s.meters, s.secs)
		pace := float64(s.secs) / (s.meters / 1000.0)
		out = append(out, Option{
			ID:             s.id,
			Title:          s.title,
			Description:    fmt.Sprintf("Run %.0fkm in %s to establish your baseline", s.meters/1000, formatClock(s.secs)),
			TargetPace:     pace,
			TargetDuration: s.secs,
			TargetDistance: s.meters,
			ExpectedPPI:    expected,
			Bucket:         b,
		})
	}
	return out
}

func titleFor(b bucket.Bucket) string {
	switch b {
	case bucket.ShortSprint, bucket.Sprint:
		return "Short & Fierce"
	case bucket.ShortRun, bucket.MediumRun:
		return "Tempo Boost"
	default:
		return "Ease Into It"
	}
}

func formatPace(secondsPerKm float64) string {
	s := int(math.Round(secondsPerKm))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func formatClock(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
