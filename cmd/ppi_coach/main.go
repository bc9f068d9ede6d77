package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/ppi-coach/internal/config"
	"github.com/lucasjlepore/ppi-coach/pipeline"
)

func main() {
	var (
		fitPath    = flag.String("fit", "", "Path to the .fit activity to replay")
		historyDir = flag.String("history", "", "Directory of earlier .fit activities (defaults to history.fit_dir)")
		outDir     = flag.String("out", "", "Output directory")
		format     = flag.String("format", "parquet", "Feedback trace format: parquet|csv")
		bucketName = flag.String("bucket", "", "Challenge bucket, e.g. short_run or \"Short Run\" (defaults to the activity's own)")
		configPath = flag.String("config", "", "Optional config.yaml")
		overwrite  = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit today.fit --out outdir [--history runs/] [--bucket short_run] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "ppi_coach failed: %v\n", err)
			os.Exit(1)
		}
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	history := *historyDir
	if history == "" {
		history = cfg.History.FitDir
	}

	result, err := pipeline.Run(pipeline.Options{
		FitPath:    *fitPath,
		HistoryDir: history,
		OutDir:     *outDir,
		Format:     *format,
		Overwrite:  *overwrite,
		Coaching: pipeline.Coaching{
			PaceToleranceSec:   cfg.Coach.PaceToleranceSec,
			ChallengeIncrement: cfg.Coach.ChallengeIncrement,
			Bucket:             *bucketName,
			Logger:             logger,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ppi_coach failed: %v\n", err)
		os.Exit(1)
	}

	verdict := "not achieved"
	if result.Score.Achieved {
		verdict = "achieved"
	}
	fmt.Printf("ppi_coach complete\n")
	fmt.Printf("Output dir:        %s\n", result.OutputDir)
	fmt.Printf("feedback trace:    %s\n", result.TracePath)
	fmt.Printf("session summary:   %s\n", result.SummaryPath)
	fmt.Printf("session notes:     %s\n", result.NotesPath)
	fmt.Printf("index:             %.2f (%s, challenge %s)\n", result.Score.PPI, result.Score.Bucket.Label(), verdict)
	for _, w := range result.Warnings {
		fmt.Printf("warning:           %s\n", w)
	}
}
