// Package runfit decodes FIT running activities into the telemetry, splits
// and performance index the coach works with.
package runfit

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/runstore"
	"github.com/lucasjlepore/ppi-coach/score"
)

// Activity contains the metrics extracted from one FIT run.
type Activity struct {
	FilePath        string        `json:"file_path"`
	Sport           string        `json:"sport"`
	SubSport        string        `json:"sub_sport"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	ElapsedSeconds  float64       `json:"elapsed_seconds"`
	MovingSeconds   float64       `json:"moving_seconds"`
	DistanceMeters  float64       `json:"distance_meters"`
	ElevationGainM  float64       `json:"elevation_gain_m"`
	ElevationLossM  float64       `json:"elevation_loss_m"`
	Calories        int           `json:"calories"`
	AvgSpeedMps     float64       `json:"avg_speed_mps"`
	MaxSpeedMps     float64       `json:"max_speed_mps"`
	AvgPaceSecPerKm float64       `json:"avg_pace_sec_per_km"`
	AvgHeartRate    float64       `json:"avg_heart_rate_bpm"`
	MaxHeartRate    float64       `json:"max_heart_rate_bpm"`
	AvgCadenceSPM   float64       `json:"avg_cadence_spm"`
	PPI             float64       `json:"ppi"`
	Scored          bool          `json:"scored"`
	Bucket          bucket.Bucket `json:"bucket"`
	Splits          []Split       `json:"splits,omitempty"`
	Pacing          Pacing        `json:"pacing"`
	Samples         []Sample      `json:"-"`
	Notes           string        `json:"notes"`
}

// Sample is one time-ordered telemetry point. Distance never decreases.
type Sample struct {
	Timestamp      time.Time `json:"timestamp"`
	OffsetSec      int64     `json:"offset_sec"`
	DistanceMeters float64   `json:"distance_m"`
	SpeedMps       float64   `json:"speed_mps"`
	PaceSecPerKm   float64   `json:"pace_sec_per_km"`
	HeartRate      float64   `json:"heart_rate_bpm,omitempty"`
}

type recordSeries struct {
	start       time.Time
	end         time.Time
	durationSec float64

	samples      []Sample
	hrSamples    []float64
	cadSamples   []float64
	speedSamples []float64

	lastDistanceMeters float64
}

// AnalyzeFile decodes and analyzes a FIT activity on disk.
func AnalyzeFile(path string) (*Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return Analyze(f, path)
}

// Analyze decodes a FIT activity from r. name is only used for reporting and
// for record IDs when the file carries no start time.
func Analyze(r io.Reader, name string) (*Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	series := buildRecordSeries(activity.Records)
	if len(activity.Sessions) == 0 && len(series.samples) == 0 {
		return nil, fmt.Errorf("activity file has neither a session nor records")
	}

	a := &Activity{FilePath: name, Samples: series.samples}
	session := fit.NewSessionMsg()
	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		session = activity.Sessions[0]
	}
	a.Sport = fmt.Sprint(session.Sport)
	a.SubSport = fmt.Sprint(session.SubSport)

	a.StartTime = validTimeOrZero(session.StartTime)
	a.EndTime = validTimeOrZero(session.Timestamp)
	if a.StartTime.IsZero() {
		a.StartTime = series.start
	}
	if a.EndTime.IsZero() {
		a.EndTime = series.end
	}

	a.ElapsedSeconds = safePositive(session.GetTotalTimerTimeScaled())
	if a.ElapsedSeconds == 0 {
		a.ElapsedSeconds = series.durationSec
	}
	a.MovingSeconds = safePositive(session.GetTotalMovingTimeScaled())
	if a.MovingSeconds == 0 {
		a.MovingSeconds = a.ElapsedSeconds
	}
	a.DistanceMeters = safePositive(session.GetTotalDistanceScaled())
	if a.DistanceMeters == 0 {
		a.DistanceMeters = series.lastDistanceMeters
	}
	a.ElevationGainM = float64(validUint16(session.TotalAscent))
	a.ElevationLossM = float64(validUint16(session.TotalDescent))
	a.Calories = int(validUint16(session.TotalCalories))

	a.AvgSpeedMps = safePositive(session.GetEnhancedAvgSpeedScaled())
	if a.AvgSpeedMps == 0 {
		a.AvgSpeedMps = safePositive(session.GetAvgSpeedScaled())
	}
	if a.AvgSpeedMps == 0 && a.ElapsedSeconds > 0 {
		a.AvgSpeedMps = a.DistanceMeters / a.ElapsedSeconds
	}
	a.MaxSpeedMps = safePositive(session.GetEnhancedMaxSpeedScaled())
	if a.MaxSpeedMps == 0 {
		a.MaxSpeedMps = safePositive(session.GetMaxSpeedScaled())
	}
	if a.MaxSpeedMps == 0 {
		a.MaxSpeedMps = maxValue(series.speedSamples)
	}
	if a.DistanceMeters > 0 {
		a.AvgPaceSecPerKm = a.ElapsedSeconds / (a.DistanceMeters / 1000.0)
	}

	a.AvgHeartRate = float64(validUint8(session.AvgHeartRate))
	if a.AvgHeartRate == 0 {
		a.AvgHeartRate = average(series.hrSamples)
	}
	a.MaxHeartRate = float64(validUint8(session.MaxHeartRate))
	if a.MaxHeartRate == 0 {
		a.MaxHeartRate = maxValue(series.hrSamples)
	}
	// FIT running cadence counts one foot.
	a.AvgCadenceSPM = 2 * average(series.cadSamples)

	if err := a.score(); err != nil {
		return nil, err
	}
	a.Splits = buildSplits(a.Samples)
	a.Pacing = summarizePacing(a.Samples, a.Splits)
	a.Notes = BuildRunNotes(a)
	return a, nil
}

// score fills PPI and Bucket. A run too short to score is kept unscored.
func (a *Activity) score() error {
	b, err := bucket.Classify(a.DistanceMeters)
	if err != nil {
		return fmt.Errorf("classify activity: %w", err)
	}
	a.Bucket = b

	seconds := int64(math.Round(a.ElapsedSeconds))
	if a.DistanceMeters <= 0 || seconds <= 0 {
		return nil
	}
	ppi, err := score.PerformanceIndex(a.DistanceMeters, seconds)
	if err != nil {
		return fmt.Errorf("score activity: %w", err)
	}
	a.PPI = ppi
	a.Scored = true
	return nil
}

// DurationSec is the whole-second elapsed time used for scoring.
func (a *Activity) DurationSec() int64 {
	return int64(math.Round(a.ElapsedSeconds))
}

// Record converts the activity into a run store record.
func (a *Activity) Record() runstore.Record {
	rec := runstore.Record{
		ID:              a.recordID(),
		Source:          runstore.SourceFIT,
		DistanceMeters:  a.DistanceMeters,
		ElapsedSeconds:  a.DurationSec(),
		AvgPaceSecPerKm: a.AvgPaceSecPerKm,
		Notes:           a.Pacing.Strategy,
	}
	if !a.StartTime.IsZero() {
		rec.StartedAtEpochMs = a.StartTime.UnixMilli()
		rec.EndedAtEpochMs = rec.StartedAtEpochMs + rec.ElapsedSeconds*1000
	}
	if a.AvgHeartRate > 0 {
		hr := int(math.Round(a.AvgHeartRate))
		rec.AvgHR = &hr
	}
	if a.Scored {
		ppi := a.PPI
		rec.PPI = &ppi
	}
	return rec
}

func (a *Activity) recordID() string {
	if !a.StartTime.IsZero() {
		return fmt.Sprintf("fit-%d", a.StartTime.UnixMilli())
	}
	return "fit-" + filepath.Base(a.FilePath)
}

func buildRecordSeries(records []*fit.RecordMsg) recordSeries {
	rs := recordSeries{}
	if len(records) == 0 {
		return rs
	}

	rows := make([]*fit.RecordMsg, 0, len(records))
	for _, rec := range records {
		if rec == nil || validTimeOrZero(rec.Timestamp).IsZero() {
			continue
		}
		rows = append(rows, rec)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	if len(rows) == 0 {
		return rs
	}

	rs.start = rows[0].Timestamp
	rs.end = rows[len(rows)-1].Timestamp
	if rs.end.After(rs.start) {
		rs.durationSec = rs.end.Sub(rs.start).Seconds()
	}

	var prev *Sample
	for _, rec := range rows {
		s := Sample{
			Timestamp: rec.Timestamp,
			OffsetSec: int64(math.Round(rec.Timestamp.Sub(rs.start).Seconds())),
		}

		distance := rec.GetDistanceScaled()
		switch {
		case isFinite(distance) && distance >= 0:
			s.DistanceMeters = distance
		case prev != nil:
			s.DistanceMeters = prev.DistanceMeters
		}
		if prev != nil && s.DistanceMeters < prev.DistanceMeters {
			s.DistanceMeters = prev.DistanceMeters
		}

		if speed, ok := extractSpeed(rec); ok {
			s.SpeedMps = speed
			rs.speedSamples = append(rs.speedSamples, speed)
		} else if prev != nil && s.OffsetSec > prev.OffsetSec {
			s.SpeedMps = (s.DistanceMeters - prev.DistanceMeters) / float64(s.OffsetSec-prev.OffsetSec)
		}
		if s.SpeedMps > 0 {
			s.PaceSecPerKm = 1000.0 / s.SpeedMps
		}

		if hr, ok := extractHeartRate(rec); ok {
			s.HeartRate = hr
			rs.hrSamples = append(rs.hrSamples, hr)
		}
		if cad, ok := extractCadence(rec); ok && cad > 0 {
			rs.cadSamples = append(rs.cadSamples, cad)
		}

		rs.samples = append(rs.samples, s)
		prev = &rs.samples[len(rs.samples)-1]
	}
	rs.lastDistanceMeters = prev.DistanceMeters
	return rs
}

func extractHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 || rec.HeartRate == 0 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func extractCadence(rec *fit.RecordMsg) (float64, bool) {
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence), true
}

func extractSpeed(rec *fit.RecordMsg) (float64, bool) {
	speed := rec.GetEnhancedSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	speed = rec.GetSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	return 0, false
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint8(v uint8) uint8 {
	if v == math.MaxUint8 {
		return 0
	}
	return v
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func average(values []float64) float64 {
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	best := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
