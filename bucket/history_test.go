package bucket

import (
	"errors"
	"testing"

	"github.com/lucasjlepore/ppi-coach/score"
)

func TestNewHistoryIsEmpty(t *testing.T) {
	h := NewHistory()
	stats := h.AllStats()
	if len(stats) != len(All()) {
		t.Fatalf("expected %d buckets, got %d", len(All()), len(stats))
	}
	for i, s := range stats {
		if s.Bucket != Bucket(i) {
			t.Fatalf("stats[%d] bucket = %s", i, s.Bucket)
		}
		if s.HasData || s.HistoricalBest != 0 {
			t.Fatalf("bucket %s should start empty: %+v", s.Bucket, s)
		}
	}
}

func TestRecordSession5K(t *testing.T) {
	h := NewHistory()
	idx, err := h.RecordSession(5000, 1500)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	want, _ := score.PerformanceIndex(5000, 1500)
	if idx != want {
		t.Fatalf("RecordSession index = %v, want %v", idx, want)
	}
	if idx < 45 || idx > 55 {
		t.Fatalf("25:00 5K index %v outside the plausible mid range", idx)
	}

	s := h.Stats(ShortRun)
	if !s.HasData || s.HistoricalBest != idx {
		t.Fatalf("short run stats = %+v", s)
	}
	for _, other := range h.AllStats() {
		if other.Bucket != ShortRun && other.HasData {
			t.Fatalf("unexpected data in %s", other.Bucket)
		}
	}
}

func TestRecordSessionKeepsBest(t *testing.T) {
	h := NewHistory()
	// 5K in 1500 s then a slower 5K: the best must not regress.
	first, _ := h.RecordSession(5000, 1500)
	second, err := h.RecordSession(5000, 1700)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if second >= first {
		t.Fatalf("slower run scored higher: %v >= %v", second, first)
	}
	if got := h.Best(ShortRun); got != first {
		t.Fatalf("Best = %v, want %v", got, first)
	}

	third, _ := h.RecordSession(6000, 1700)
	if got := h.Best(ShortRun); got != third || third <= first {
		t.Fatalf("Best = %v after better run %v", got, third)
	}
}

func TestBestIsNonDecreasingAndEqualsMax(t *testing.T) {
	h := NewHistory()
	runs := []struct {
		meters  float64
		seconds int64
	}{
		{5000, 1500}, {5200, 1400}, {4000, 1500}, {10000, 3000}, {9000, 2400},
		{500, 120}, {800, 150}, {21097.5, 7200}, {30000, 12000}, {5000, 1300},
	}
	best := map[Bucket]float64{}
	prev := map[Bucket]float64{}
	for _, r := range runs {
		idx, err := h.RecordSession(r.meters, r.seconds)
		if err != nil {
			t.Fatalf("RecordSession: %v", err)
		}
		b, _ := Classify(r.meters)
		if idx > best[b] {
			best[b] = idx
		}
		for _, bk := range All() {
			if h.Best(bk) < prev[bk] {
				t.Fatalf("best for %s decreased", bk)
			}
			prev[bk] = h.Best(bk)
		}
	}
	for b, want := range best {
		if got := h.Best(b); got != want {
			t.Fatalf("Best(%s) = %v, want max %v", b, got, want)
		}
	}
}

func TestRecordSessionRejectsInvalidInput(t *testing.T) {
	h := NewHistory()
	if _, err := h.RecordSession(0, 100); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.RecordSession(5000, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, s := range h.AllStats() {
		if s.HasData {
			t.Fatalf("failed record must not change stats: %+v", s)
		}
	}
}

func TestAllStatsIsACopy(t *testing.T) {
	h := NewHistory()
	snapshot := h.AllStats()
	if _, err := h.RecordSession(5000, 1500); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if snapshot[ShortRun].HasData {
		t.Fatal("snapshot changed after a later record")
	}
	snapshot[MediumRun].HasData = true
	if h.Stats(MediumRun).HasData {
		t.Fatal("mutating a snapshot changed the history")
	}
}
