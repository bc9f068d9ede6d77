package score

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestPerformanceIndexBenchmarks(t *testing.T) {
	tests := []struct {
		name    string
		meters  float64
		seconds int64
		want    float64
		epsilon float64
	}{
		{name: "baseline 5K scores the scale", meters: 5000, seconds: 755, want: Scale, epsilon: 1e-9},
		{name: "recreational 25:00 5K", meters: 5000, seconds: 1500, want: 51.3148, epsilon: 1e-3},
		{name: "20:00 5K", meters: 5000, seconds: 1200, want: 63.9868, epsilon: 1e-3},
		{name: "50:00 10K", meters: 10000, seconds: 3000, want: 53.3823, epsilon: 1e-3},
		{name: "1K in 5:10", meters: 1000, seconds: 310, want: 44.1171, epsilon: 1e-3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PerformanceIndex(tc.meters, tc.seconds)
			if err != nil {
				t.Fatalf("PerformanceIndex error: %v", err)
			}
			if !almostEqual(got, tc.want, tc.epsilon) {
				t.Fatalf("PerformanceIndex(%v, %d) = %.6f, want %.4f", tc.meters, tc.seconds, got, tc.want)
			}
		})
	}
}

func TestPerformanceIndexRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		meters  float64
		seconds int64
	}{
		{"zero distance", 0, 600},
		{"negative distance", -5, 600},
		{"nan distance", math.NaN(), 600},
		{"infinite distance", math.Inf(1), 600},
		{"zero duration", 5000, 0},
		{"negative duration", 5000, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PerformanceIndex(tc.meters, tc.seconds); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRequiredFunctionsRejectInvalidInput(t *testing.T) {
	if _, err := RequiredDuration(0, 50); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero distance: expected ErrInvalidInput, got %v", err)
	}
	if _, err := RequiredDuration(5000, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero target: expected ErrInvalidInput, got %v", err)
	}
	if _, err := RequiredPace(5000, -3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative target: expected ErrInvalidInput, got %v", err)
	}
	if _, err := RequiredSeconds(5000, math.NaN()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nan target: expected ErrInvalidInput, got %v", err)
	}
}

func TestIndexStrictlyDecreasesWithDuration(t *testing.T) {
	distances := []float64{60, 100, 400, 1000, 3000, 5000, 12345, 21097.5, 42195, 100000}
	for _, d := range distances {
		prev := math.Inf(1)
		for s := int64(1); s <= 40000; s += 37 {
			got, err := PerformanceIndex(d, s)
			if err != nil {
				t.Fatalf("PerformanceIndex(%v, %d): %v", d, s, err)
			}
			if !(got < prev) {
				t.Fatalf("index not strictly decreasing at d=%v t=%d: %v >= %v", d, s, got, prev)
			}
			prev = got
		}
	}
}

func TestIndexStrictlyIncreasesWithDistance(t *testing.T) {
	for _, seconds := range []int64{30, 600, 1500, 3600, 14400} {
		prev := 0.0
		for d := 50.0; d <= 120000; d *= 1.07 {
			got, err := PerformanceIndex(d, seconds)
			if err != nil {
				t.Fatalf("PerformanceIndex(%v, %d): %v", d, seconds, err)
			}
			if !(got > prev) {
				t.Fatalf("index not strictly increasing at d=%v t=%d: %v <= %v", d, seconds, got, prev)
			}
			prev = got
		}
	}
}

func TestBaselineIsContinuousAtAnchors(t *testing.T) {
	for _, a := range anchors {
		got := Baseline(a.meters)
		if !almostEqual(got, a.seconds, 1e-9*a.seconds) {
			t.Fatalf("Baseline(%v) = %v, want %v", a.meters, got, a.seconds)
		}
		below := Baseline(a.meters * (1 - 1e-9))
		above := Baseline(a.meters * (1 + 1e-9))
		if !(below < got && got < above) {
			t.Fatalf("Baseline not strictly increasing around %v: %v %v %v", a.meters, below, got, above)
		}
	}
	if Baseline(0) != 0 || Baseline(-1) != 0 {
		t.Fatal("expected zero baseline for non-positive distances")
	}
}

func TestRequiredSecondsRoundTrip(t *testing.T) {
	for _, d := range []float64{80, 500, 1609.34, 5000, 8000, 21097.5, 42195, 80000} {
		for _, target := range []float64{0.5, 5, 20, 35.5, 51.3, 75, 100, 140, 400} {
			seconds, err := RequiredSeconds(d, target)
			if err != nil {
				t.Fatalf("RequiredSeconds(%v, %v): %v", d, target, err)
			}
			got, err := IndexAt(d, seconds)
			if err != nil {
				t.Fatalf("IndexAt(%v, %v): %v", d, seconds, err)
			}
			if rel := math.Abs(got-target) / target; rel > 1e-6 {
				t.Fatalf("round trip d=%v target=%v: got %v (rel err %g)", d, target, got, rel)
			}
		}
	}
}

func TestRequiredSecondsExtremeTargets(t *testing.T) {
	for _, d := range []float64{5000, 42195} {
		for _, target := range []float64{1e-30, 1e-100, 1e4} {
			seconds, err := RequiredSeconds(d, target)
			if err != nil {
				t.Fatalf("RequiredSeconds(%v, %g): %v", d, target, err)
			}
			got, err := IndexAt(d, seconds)
			if err != nil {
				t.Fatalf("IndexAt(%v, %v): %v", d, seconds, err)
			}
			if rel := math.Abs(got-target) / target; rel > 1e-6 {
				t.Fatalf("round trip d=%v target=%g: got %g (rel err %g)", d, target, got, rel)
			}
		}
	}
}

func TestRequiredDurationSlowTargets(t *testing.T) {
	idx, err := PerformanceIndex(42195, 10_000_000)
	if err != nil {
		t.Fatalf("PerformanceIndex: %v", err)
	}
	got, err := RequiredDuration(42195, idx)
	if err != nil {
		t.Fatalf("RequiredDuration: %v", err)
	}
	if got != 10_000_000 {
		t.Fatalf("RequiredDuration(42195, index(1e7)) = %d", got)
	}

	// Far below any representable duration.
	if _, err := RequiredDuration(1e15, 1e-300); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unrepresentable duration: expected ErrInvalidInput, got %v", err)
	}
	if _, err := IndexAt(5000, 1e12); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("index underflow: expected ErrInvalidInput, got %v", err)
	}
}

func TestRequiredDurationInvertsWholeSeconds(t *testing.T) {
	for _, d := range []float64{400, 1000, 5000, 10000, 42195} {
		for _, seconds := range []int64{60, 299, 1500, 2701, 14399} {
			idx, err := PerformanceIndex(d, seconds)
			if err != nil {
				t.Fatalf("PerformanceIndex: %v", err)
			}
			got, err := RequiredDuration(d, idx)
			if err != nil {
				t.Fatalf("RequiredDuration: %v", err)
			}
			if got != seconds {
				t.Fatalf("RequiredDuration(%v, index(%d)) = %d", d, seconds, got)
			}
		}
	}
}

func TestRequiredDurationReachesTarget(t *testing.T) {
	// The returned duration is the slowest whole second that still scores the target.
	for _, target := range []float64{30, 41.7, 53.3148, 66.6} {
		duration, err := RequiredDuration(5000, target)
		if err != nil {
			t.Fatalf("RequiredDuration: %v", err)
		}
		at, _ := PerformanceIndex(5000, duration)
		slower, _ := PerformanceIndex(5000, duration+1)
		if at < target-1e-9 {
			t.Fatalf("target %v: index at %d s = %v is below target", target, duration, at)
		}
		if slower >= target {
			t.Fatalf("target %v: %d s is not the slowest qualifying duration", target, duration)
		}
	}
}

func TestRequiredPaceMatchesDuration(t *testing.T) {
	pace, err := RequiredPace(5000, 53.3148)
	if err != nil {
		t.Fatalf("RequiredPace: %v", err)
	}
	duration, _ := RequiredDuration(5000, 53.3148)
	if duration != 1443 {
		t.Fatalf("RequiredDuration = %d, want 1443", duration)
	}
	if !almostEqual(pace, float64(duration)/5, 1e-9) {
		t.Fatalf("RequiredPace = %v, want %v", pace, float64(duration)/5)
	}
}
