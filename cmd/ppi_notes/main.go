package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	runfit "github.com/lucasjlepore/ppi-coach"
)

func main() {
	var (
		jsonOut    = flag.Bool("json", false, "Emit the full analysis as JSON")
		showRecord = flag.Bool("record", false, "Emit the run store record as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	activity, err := runfit.AnalyzeFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	var out any
	switch {
	case *showRecord:
		out = activity.Record()
	case *jsonOut:
		out = activity
	default:
		fmt.Println(activity.Notes)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
		os.Exit(1)
	}
}
