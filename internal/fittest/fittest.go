// Package fittest builds synthetic FIT running activities for tests.
package fittest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

// Run describes a synthetic run: one pace per kilometre, sampled every
// StepSec seconds.
type Run struct {
	Start         time.Time
	PacesSecPerKm []float64
	StepSec       float64
	HeartRate     uint8
	// NoSession leaves out the session message so totals must be derived
	// from the records.
	NoSession bool
}

// Distance is the run's total distance in meters.
func (r Run) Distance() float64 {
	return float64(len(r.PacesSecPerKm)) * 1000
}

// Encode returns the run as FIT bytes.
func Encode(t testing.TB, r Run) []byte {
	t.Helper()

	if r.Start.IsZero() {
		r.Start = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	}
	if r.StepSec <= 0 {
		r.StepSec = 10
	}

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	total := r.Distance()
	elapsed := 0.0
	dist := 0.0
	addRecord := func() {
		rec := fit.NewRecordMsg()
		rec.Timestamp = r.Start.Add(time.Duration(math.Round(elapsed)) * time.Second)
		rec.Distance = uint32(math.Round(dist * 100))
		if len(r.PacesSecPerKm) > 0 {
			km := int(dist / 1000)
			if km >= len(r.PacesSecPerKm) {
				km = len(r.PacesSecPerKm) - 1
			}
			rec.Speed = uint16(math.Round(1000.0 / r.PacesSecPerKm[km] * 1000))
		}
		if r.HeartRate > 0 {
			rec.HeartRate = r.HeartRate
		}
		rec.Cadence = 85
		activity.Records = append(activity.Records, rec)
	}

	addRecord()
	for dist < total {
		km := int(dist / 1000)
		speed := 1000.0 / r.PacesSecPerKm[km]
		step := r.StepSec
		if dist+speed*step >= total {
			step = (total - dist) / speed
			dist = total
		} else {
			dist += speed * step
		}
		elapsed += step
		addRecord()
	}

	start := fit.NewEventMsg()
	start.Timestamp = r.Start
	start.Event = fit.EventTimer
	start.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, start)

	end := r.Start.Add(time.Duration(math.Round(elapsed)) * time.Second)
	stop := fit.NewEventMsg()
	stop.Timestamp = end
	stop.Event = fit.EventTimer
	stop.EventType = fit.EventTypeStop
	activity.Events = append(activity.Events, stop)

	if !r.NoSession {
		session := fit.NewSessionMsg()
		session.Timestamp = end
		session.StartTime = r.Start
		session.Sport = fit.SportRunning
		session.SubSport = fit.SubSportGeneric
		session.TotalTimerTime = uint32(math.Round(elapsed) * 1000)
		session.TotalElapsedTime = session.TotalTimerTime
		session.TotalDistance = uint32(math.Round(total * 100))
		activity.Sessions = append(activity.Sessions, session)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

// WriteFile encodes r into dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, r Run) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Encode(t, r), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Elapsed returns the whole-second duration Encode gives r.
func Elapsed(r Run) int64 {
	step := r.StepSec
	if step <= 0 {
		step = 10
	}
	total := r.Distance()
	elapsed, dist := 0.0, 0.0
	for dist < total {
		speed := 1000.0 / r.PacesSecPerKm[int(dist/1000)]
		s := step
		if dist+speed*s >= total {
			s = (total - dist) / speed
			dist = total
		} else {
			dist += speed * s
		}
		elapsed += s
	}
	return int64(math.Round(elapsed))
}
