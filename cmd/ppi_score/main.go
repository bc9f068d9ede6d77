package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/score"
)

type report struct {
	DistanceMeters  float64       `json:"distance_m"`
	Bucket          bucket.Bucket `json:"bucket"`
	DurationSec     int64         `json:"duration_sec,omitempty"`
	PPI             float64       `json:"ppi,omitempty"`
	TargetPPI       float64       `json:"target_ppi,omitempty"`
	RequiredSec     int64         `json:"required_duration_sec,omitempty"`
	RequiredPaceSec float64       `json:"required_pace_sec_per_km,omitempty"`
}

func main() {
	var (
		distance = flag.Float64("distance", 0, "Distance in meters")
		timeStr  = flag.String("time", "", "Finish time as h:mm:ss, mm:ss or seconds")
		target   = flag.Float64("target", 0, "Target index; prints the time and pace needed to reach it")
		jsonOut  = flag.Bool("json", false, "Emit the result as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --distance 5000 (--time 25:00 | --target 55)\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *distance <= 0 || (*timeStr == "" && *target <= 0) {
		flag.Usage()
		os.Exit(2)
	}

	b, err := bucket.Classify(*distance)
	if err != nil {
		fail(err)
	}
	r := report{DistanceMeters: *distance, Bucket: b}

	if *timeStr != "" {
		secs, err := parseClock(*timeStr)
		if err != nil {
			fail(err)
		}
		if r.PPI, err = score.PerformanceIndex(*distance, secs); err != nil {
			fail(err)
		}
		r.DurationSec = secs
	}
	if *target > 0 {
		if r.RequiredSec, err = score.RequiredDuration(*distance, *target); err != nil {
			fail(err)
		}
		if r.RequiredPaceSec, err = score.RequiredPace(*distance, *target); err != nil {
			fail(err)
		}
		r.TargetPPI = *target
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			fail(err)
		}
		return
	}

	fmt.Printf("Distance %.0f m (%s)\n", r.DistanceMeters, b.Label())
	if r.DurationSec > 0 {
		fmt.Printf("Time %s scores %.2f\n", clock(r.DurationSec), r.PPI)
	}
	if r.TargetPPI > 0 {
		fmt.Printf("Index %.2f needs %s (%s/km)\n", r.TargetPPI, clock(r.RequiredSec), clock(int64(r.RequiredPaceSec+0.5)))
	}
}

// parseClock accepts "1:23:45", "25:00" or "1500".
func parseClock(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}

func clock(sec int64) string {
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "ppi_score failed: %v\n", err)
	os.Exit(1)
}
