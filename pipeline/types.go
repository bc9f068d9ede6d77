package pipeline

import (
	"log/slog"
	"time"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/challenge"
	"github.com/lucasjlepore/ppi-coach/coach"
	"github.com/lucasjlepore/ppi-coach/runstore"
)

// Output file names.
const (
	TraceBaseName      = "feedback_trace"
	SummaryFileName    = "session_summary.json"
	NotesFileName      = "session_notes.md"
	defaultTraceFormat = "parquet"
)

// Coaching tunes the replayed session. Zero values use the coach defaults.
type Coaching struct {
	PaceToleranceSec   float64
	ChallengeIncrement float64
	// Bucket forces the challenge bucket (name or label). Empty means the
	// replayed activity's own bucket.
	Bucket             string
	Logger             *slog.Logger
}

// Options configures the ppi_coach replay pipeline.
type Options struct {
	FitPath    string
	// HistoryDir holds earlier FIT activities used to seed the history.
	HistoryDir string
	OutDir     string
	Format     string // parquet|csv
	Overwrite  bool
	Coaching
}

// BytesOptions configures an in-memory replay.
type BytesOptions struct {
	SourceFileName string
	FitData        []byte
	History        []runstore.Record
	Format         string // parquet|csv
	Coaching
}

// Result returns generated output paths.
type Result struct {
	OutputDir   string      `json:"output_dir"`
	TracePath   string      `json:"trace_path"`
	SummaryPath string      `json:"summary_path"`
	NotesPath   string      `json:"notes_path"`
	Score       coach.Score `json:"score"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// BytesResult holds every artifact keyed by file name.
type BytesResult struct {
	Files   map[string][]byte
	Summary SessionSummaryFile
}

// TraceRow is the coaching feedback for one telemetry tick.
type TraceRow struct {
	OffsetSec          int64   `json:"offset_sec"`
	DistanceM          float64 `json:"distance_m"`
	DurationSec        int64   `json:"duration_sec"`
	PaceSecPerKm       float64 `json:"pace_sec_per_km"`
	TargetPaceSecPerKm float64 `json:"target_pace_sec_per_km"`
	PaceDifference     float64 `json:"pace_difference_sec_per_km"`
	Zone               string  `json:"zone"`
	ProgressPct        float64 `json:"progress_pct"`
}

// ActivitySummary is the replayed activity's headline numbers.
type ActivitySummary struct {
	SourceFile      string        `json:"source_file"`
	StartTime       time.Time     `json:"start_time"`
	DistanceM       float64       `json:"distance_m"`
	DurationS       int64         `json:"duration_s"`
	AvgPaceSecPerKm float64       `json:"avg_pace_sec_per_km"`
	AvgHRBPM        float64       `json:"avg_hr_bpm,omitempty"`
	PPI             float64       `json:"ppi"`
	Bucket          bucket.Bucket `json:"bucket"`
	PacingStrategy  string        `json:"pacing_strategy"`
}

// SessionSummaryFile is written as session_summary.json.
type SessionSummaryFile struct {
	Activity       ActivitySummary    `json:"activity"`
	Challenge      challenge.Option   `json:"challenge"`
	Score          coach.Score        `json:"score"`
	BestBefore     float64            `json:"best_before"`
	ZoneSeconds    map[string]int64   `json:"zone_seconds"`
	HistoryRuns    int                `json:"history_runs"`
	StatsBefore    []bucket.Stats     `json:"stats_before"`
	StatsAfter     []bucket.Stats     `json:"stats_after"`
	Bests          runstore.Bests     `json:"bests"`
	NextChallenges []challenge.Option `json:"next_challenges,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}
