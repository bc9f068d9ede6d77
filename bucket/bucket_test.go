package bucket

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		meters float64
		want   Bucket
	}{
		{0, ShortSprint},
		{400, ShortSprint},
		{999.999, ShortSprint},
		{1000, Sprint},
		{2000, Sprint},
		{3000, ShortRun},
		{5000, ShortRun},
		{8000, MediumRun},
		{10000, MediumRun},
		{15000, LongRun},
		{21097.5, LongRun},
		{25000, UltraRun},
		{42195, UltraRun},
		{1e9, UltraRun},
		{math.Inf(1), UltraRun},
	}
	for _, tc := range tests {
		got, err := Classify(tc.meters)
		if err != nil {
			t.Fatalf("Classify(%v) error: %v", tc.meters, err)
		}
		if got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.meters, got, tc.want)
		}
	}
}

func TestClassifyRejectsNegative(t *testing.T) {
	for _, d := range []float64{-0.001, -5000, math.NaN()} {
		if _, err := Classify(d); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Classify(%v): expected ErrInvalidInput, got %v", d, err)
		}
	}
}

func TestBucketsPartitionDistances(t *testing.T) {
	all := All()
	if all[0].MinKm() != 0 {
		t.Fatalf("first bucket must start at 0, got %v", all[0].MinKm())
	}
	if !math.IsInf(all[len(all)-1].MaxKm(), 1) {
		t.Fatalf("last bucket must be unbounded")
	}
	for i := 1; i < len(all); i++ {
		if all[i].MinKm() != all[i-1].MaxKm() {
			t.Fatalf("gap or overlap between %s and %s", all[i-1], all[i])
		}
	}

	for km := 0.0; km < 60; km += 0.125 {
		matches := 0
		for _, b := range all {
			if b.Contains(km) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("%v km matched %d buckets", km, matches)
		}
		got, _ := Classify(km * 1000)
		if !got.Contains(km) {
			t.Fatalf("Classify(%v km) = %s which does not contain it", km, got)
		}
	}
}

func TestLookup(t *testing.T) {
	got, ok := Lookup("Short Run")
	if !ok || got != ShortRun {
		t.Fatalf("Lookup(Short Run) = %s, %t", got, ok)
	}
	for _, label := range []string{"short run", "short_run", "", "Marathon"} {
		if _, ok := Lookup(label); ok {
			t.Fatalf("Lookup(%q) should not match", label)
		}
	}
	for _, b := range All() {
		back, ok := Lookup(b.Label())
		if !ok || back != b {
			t.Fatalf("Lookup(%q) = %s, %t", b.Label(), back, ok)
		}
	}
}

func TestRepresentativeMeters(t *testing.T) {
	want := map[Bucket]float64{
		ShortSprint: 500,
		Sprint:      2000,
		ShortRun:    5500,
		MediumRun:   11500,
		LongRun:     20000,
		UltraRun:    25000,
	}
	for b, meters := range want {
		if got := b.RepresentativeMeters(); got != meters {
			t.Errorf("%s.RepresentativeMeters() = %v, want %v", b, got, meters)
		}
		if got, _ := Classify(b.RepresentativeMeters()); got != b {
			t.Errorf("representative distance of %s classifies as %s", b, got)
		}
	}
}

func TestBucketJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		B Bucket `json:"b"`
	}{MediumRun})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"b":"medium_run"}` {
		t.Fatalf("unexpected json %s", data)
	}

	var out struct {
		B Bucket `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"b":"Long Run"}`), &out); err != nil {
		t.Fatalf("unmarshal label: %v", err)
	}
	if out.B != LongRun {
		t.Fatalf("unmarshal label = %s", out.B)
	}
	if err := json.Unmarshal([]byte(`{"b":"hill_run"}`), &out); err == nil {
		t.Fatal("expected error for unknown bucket")
	}
}
