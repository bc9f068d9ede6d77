package challenge

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/score"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}
}

func TestNewGeneratorRejectsNonPositiveIncrement(t *testing.T) {
	for _, inc := range []float64{0, -1} {
		if _, err := NewGenerator(inc); !errors.Is(err, score.ErrInvalidInput) {
			t.Fatalf("NewGenerator(%v): expected ErrInvalidInput, got %v", inc, err)
		}
	}
}

func TestGenerateEmptyHistory(t *testing.T) {
	g, _ := NewGenerator(DefaultIncrement)
	out, err := g.Generate(bucket.NewHistory())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no challenges without history, got %d", len(out))
	}
}

func TestGenerateSkipsBucketsWithoutData(t *testing.T) {
	h := bucket.NewHistory()
	mustRecord(t, h, 30000, 11000)
	mustRecord(t, h, 5000, 1500)
	mustRecord(t, h, 1500, 420)

	g, _ := NewGenerator(DefaultIncrement)
	g = g.WithIDs(sequentialIDs())
	out, err := g.Generate(h)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []bucket.Bucket{bucket.Sprint, bucket.ShortRun, bucket.UltraRun}
	if len(out) != len(want) {
		t.Fatalf("got %d challenges, want %d", len(out), len(want))
	}
	for i, opt := range out {
		if opt.Bucket != want[i] {
			t.Fatalf("challenge %d bucket = %s, want %s", i, opt.Bucket, want[i])
		}
		if opt.ID != fmt.Sprintf("c%d", i+1) {
			t.Fatalf("challenge %d id = %q", i, opt.ID)
		}
	}
}

func TestGenerateTargetsBeatHistoricalBest(t *testing.T) {
	h := bucket.NewHistory()
	mustRecord(t, h, 800, 200)
	mustRecord(t, h, 2000, 560)
	mustRecord(t, h, 5000, 1500)
	mustRecord(t, h, 10000, 3000)
	mustRecord(t, h, 21097.5, 7200)
	mustRecord(t, h, 42195, 15000)

	g, _ := NewGenerator(DefaultIncrement)
	out, err := g.Generate(h)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("expected a challenge per bucket, got %d", len(out))
	}

	seen := map[string]bool{}
	for _, opt := range out {
		best := h.Best(opt.Bucket)
		if !(opt.ExpectedPPI > best) {
			t.Fatalf("%s: expected %v must exceed best %v", opt.Bucket, opt.ExpectedPPI, best)
		}
		if opt.ExpectedPPI != best+DefaultIncrement {
			t.Fatalf("%s: expected %v, want best+increment %v", opt.Bucket, opt.ExpectedPPI, best+DefaultIncrement)
		}
		if opt.TargetDistance != opt.Bucket.RepresentativeMeters() {
			t.Fatalf("%s: target distance %v", opt.Bucket, opt.TargetDistance)
		}
		reached, err := score.PerformanceIndex(opt.TargetDistance, opt.TargetDuration)
		if err != nil {
			t.Fatalf("PerformanceIndex: %v", err)
		}
		if reached < opt.ExpectedPPI-1e-9 {
			t.Fatalf("%s: running the target duration scores %v < %v", opt.Bucket, reached, opt.ExpectedPPI)
		}
		wantPace := float64(opt.TargetDuration) / (opt.TargetDistance / 1000)
		if opt.TargetPace != wantPace {
			t.Fatalf("%s: pace %v, want %v", opt.Bucket, opt.TargetPace, wantPace)
		}
		if opt.ID == "" || seen[opt.ID] {
			t.Fatalf("%s: id %q is empty or duplicated", opt.Bucket, opt.ID)
		}
		seen[opt.ID] = true
		if opt.Title == "" || !strings.Contains(opt.Description, opt.Bucket.Label()) {
			t.Fatalf("%s: title/description not populated: %q / %q", opt.Bucket, opt.Title, opt.Description)
		}
	}
}

func TestGenerateDoesNotMutateHistory(t *testing.T) {
	h := bucket.NewHistory()
	mustRecord(t, h, 5000, 1500)
	before := h.AllStats()

	g, _ := NewGenerator(5)
	first, _ := g.Generate(h)
	second, _ := g.Generate(h)

	after := h.AllStats()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("history changed: %+v -> %+v", before[i], after[i])
		}
	}
	if first[0].ID == second[0].ID {
		t.Fatal("each batch must carry fresh ids")
	}
	first[0].ExpectedPPI = 0
	if second[0].ExpectedPPI == 0 {
		t.Fatal("batches must not share storage")
	}
}

func TestSurpriseBeatsBestByOneToEight(t *testing.T) {
	h := bucket.NewHistory()
	mustRecord(t, h, 1500, 420)
	mustRecord(t, h, 5000, 1500)
	mustRecord(t, h, 30000, 11000)

	g, _ := NewGenerator(DefaultIncrement)
	g = g.WithIDs(sequentialIDs())
	rnd := rand.New(rand.NewSource(7))
	seen := map[bucket.Bucket]bool{}
	for i := 0; i < 200; i++ {
		opt, err := g.Surprise(h, rnd)
		if err != nil {
			t.Fatalf("Surprise: %v", err)
		}
		best := h.Best(opt.Bucket)
		if best == 0 {
			t.Fatalf("surprise picked %s, which has no data", opt.Bucket)
		}
		inc := opt.ExpectedPPI - best
		if inc < SurpriseMinIncrement-1e-9 || inc > SurpriseMaxIncrement+1e-9 {
			t.Fatalf("%s: increment %v outside [1, 8)", opt.Bucket, inc)
		}
		reached, err := score.PerformanceIndex(opt.TargetDistance, opt.TargetDuration)
		if err != nil {
			t.Fatalf("PerformanceIndex: %v", err)
		}
		if reached < opt.ExpectedPPI-1e-9 {
			t.Fatalf("%s: running the target duration scores %v < %v", opt.Bucket, reached, opt.ExpectedPPI)
		}
		if opt.Title != "Surprise Me" || opt.ID != fmt.Sprintf("c%d", i+1) {
			t.Fatalf("unexpected title or id: %q / %q", opt.Title, opt.ID)
		}
		seen[opt.Bucket] = true
	}
	if len(seen) != 3 {
		t.Fatalf("surprise buckets = %v, want all three with data", seen)
	}
}

func TestSurpriseWithoutHistoryPicksAStarter(t *testing.T) {
	g, _ := NewGenerator(DefaultIncrement)
	g = g.WithIDs(sequentialIDs())
	opt, err := g.Surprise(bucket.NewHistory(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Surprise: %v", err)
	}
	found := false
	for _, s := range Starter() {
		if s.Bucket == opt.Bucket && s.TargetDuration == opt.TargetDuration {
			found = true
		}
	}
	if !found || opt.ID != "c1" {
		t.Fatalf("expected a renamed starter, got %+v", opt)
	}

	if _, err := g.Surprise(bucket.NewHistory(), nil); err == nil {
		t.Fatal("expected error without a random source")
	}
}

func TestStarterOptions(t *testing.T) {
	out := Starter()
	if len(out) != 3 {
		t.Fatalf("expected 3 starter options, got %d", len(out))
	}
	for _, opt := range out {
		reached, _ := score.PerformanceIndex(opt.TargetDistance, opt.TargetDuration)
		if reached != opt.ExpectedPPI {
			t.Fatalf("%s: expected %v, scored %v", opt.ID, opt.ExpectedPPI, reached)
		}
		if b, _ := bucket.Classify(opt.TargetDistance); b != opt.Bucket {
			t.Fatalf("%s: bucket %s, distance classifies as %s", opt.ID, opt.Bucket, b)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatPace(299.6); got != "5:00" {
		t.Fatalf("formatPace = %q", got)
	}
	if got := formatClock(1443); got != "24:03" {
		t.Fatalf("formatClock = %q", got)
	}
	if got := formatClock(7384); got != "2:03:04" {
		t.Fatalf("formatClock = %q", got)
	}
}

func mustRecord(t *testing.T, h *bucket.History, meters float64, seconds int64) {
	t.Helper()
	if _, err := h.RecordSession(meters, seconds); err != nil {
		t.Fatalf("RecordSession(%v, %d): %v", meters, seconds, err)
	}
}
