package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	runfit "github.com/lucasjlepore/ppi-coach"
	"github.com/lucasjlepore/ppi-coach/runstore"
)

// Run replays one FIT activity as a coaching session and writes the
// feedback trace, the session summary and the notes to OutDir.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.FitPath) == "" {
		return nil, fmt.Errorf("fit path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	activity, err := runfit.AnalyzeFile(opts.FitPath)
	if err != nil {
		return nil, err
	}

	var history []runstore.Record
	var warnings []string
	if strings.TrimSpace(opts.HistoryDir) != "" {
		history, warnings, err = LoadHistory(opts.HistoryDir, opts.FitPath)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
	}

	summary, trace, err := replay(activity, history, opts.Coaching)
	if err != nil {
		return nil, err
	}
	summary.Warnings = append(warnings, summary.Warnings...)

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	tracePath := filepath.Join(opts.OutDir, TraceBaseName+"."+format)
	switch format {
	case "csv":
		if err := writeTraceCSVFile(tracePath, trace); err != nil {
			return nil, fmt.Errorf("write feedback csv: %w", err)
		}
	case "parquet":
		if err := writeTraceParquet(tracePath, trace); err != nil {
			return nil, fmt.Errorf("write feedback parquet: %w", err)
		}
	}

	summaryPath := filepath.Join(opts.OutDir, SummaryFileName)
	if err := writeJSON(summaryPath, summary); err != nil {
		return nil, fmt.Errorf("write session summary: %w", err)
	}

	notesPath := filepath.Join(opts.OutDir, NotesFileName)
	if err := os.WriteFile(notesPath, []byte(buildSessionNotes(activity, summary)), 0o644); err != nil {
		return nil, fmt.Errorf("write session notes: %w", err)
	}

	return &Result{
		OutputDir:   opts.OutDir,
		TracePath:   tracePath,
		SummaryPath: summaryPath,
		NotesPath:   notesPath,
		Score:       summary.Score,
		Warnings:    summary.Warnings,
	}, nil
}

// RunBytes is Run without touching the filesystem.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.FitData) == 0 {
		return nil, fmt.Errorf("fit data is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	name := opts.SourceFileName
	if name == "" {
		name = "activity.fit"
	}

	activity, err := runfit.Analyze(bytes.NewReader(opts.FitData), name)
	if err != nil {
		return nil, err
	}
	summary, trace, err := replay(activity, opts.History, opts.Coaching)
	if err != nil {
		return nil, err
	}

	var traceData []byte
	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := writeTraceCSV(&buf, trace); err != nil {
			return nil, fmt.Errorf("encode feedback csv: %w", err)
		}
		traceData = buf.Bytes()
	case "parquet":
		if traceData, err = marshalTraceParquet(trace); err != nil {
			return nil, fmt.Errorf("encode feedback parquet: %w", err)
		}
	}

	summaryData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session summary: %w", err)
	}

	return &BytesResult{
		Files: map[string][]byte{
			TraceBaseName + "." + format: traceData,
			SummaryFileName:              append(summaryData, '\n'),
			NotesFileName:                []byte(buildSessionNotes(activity, summary)),
		},
		Summary: *summary,
	}, nil
}

// LoadHistory analyzes every .fit file directly under dir and returns one
// record per scorable run, oldest first. The file at exclude is skipped.
// Files that fail to decode are reported as warnings.
func LoadHistory(dir, exclude string) ([]runstore.Record, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skip := ""
	if exclude != "" {
		if abs, err := filepath.Abs(exclude); err == nil {
			skip = abs
		}
	}

	var (
		records  []runstore.Record
		warnings []string
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".fit") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if abs, err := filepath.Abs(path); err == nil && abs == skip {
			continue
		}
		a, err := runfit.AnalyzeFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		if !a.Scored {
			warnings = append(warnings, fmt.Sprintf("%s: no distance or time recorded", e.Name()))
			continue
		}
		records = append(records, a.Record())
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAtEpochMs < records[j].StartedAtEpochMs
	})
	slog.Debug("history loaded", "dir", dir, "runs", len(records), "skipped", len(warnings))
	return records, warnings, nil
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = defaultTraceFormat
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory %s is not empty (use -overwrite)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var traceHeader = []string{
	"offset_sec", "distance_m", "duration_sec", "pace_sec_per_km", "target_pace_sec_per_km",
	"pace_difference_sec_per_km", "zone", "progress_pct",
}

func writeTraceCSVFile(path string, rows []TraceRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeTraceCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeTraceCSV(out io.Writer, rows []TraceRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(traceHeader); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.FormatInt(r.OffsetSec, 10),
			formatFloat(r.DistanceM),
			strconv.FormatInt(r.DurationSec, 10),
			formatFloat(r.PaceSecPerKm),
			formatFloat(r.TargetPaceSecPerKm),
			formatFloat(r.PaceDifference),
			r.Zone,
			formatFloat(r.ProgressPct),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
