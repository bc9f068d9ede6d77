package runfit

import (
	"fmt"
	"math"
	"strings"
)

// BuildRunNotes turns extracted metrics into a plain-text run summary.
func BuildRunNotes(a *Activity) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", a.Sport, a.SubSport)
	if !a.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", a.StartTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %.2f km | Elevation +%.0f/-%.0f m\n",
		formatDuration(a.ElapsedSeconds),
		a.DistanceMeters/1000.0,
		a.ElevationGainM,
		a.ElevationLossM,
	)
	fmt.Fprintf(
		&b,
		"Pace %s/km avg | Speed %.1f avg / %.1f max km/h | HR %.0f avg / %.0f max bpm | Cadence %.0f spm\n",
		formatPace(a.AvgPaceSecPerKm),
		mpsToKmh(a.AvgSpeedMps),
		mpsToKmh(a.MaxSpeedMps),
		a.AvgHeartRate,
		a.MaxHeartRate,
		a.AvgCadenceSPM,
	)
	if a.Scored {
		fmt.Fprintf(&b, "Performance index %.1f (%s)\n", a.PPI, a.Bucket.Label())
	} else {
		b.WriteString("Performance index unavailable (no distance or time recorded)\n")
	}

	if len(a.Splits) > 0 {
		b.WriteString("\nSplits\n")
		for _, sp := range a.Splits {
			fmt.Fprintf(
				&b,
				"- %d: %.2f km in %s (%s/km, %s)",
				sp.Index,
				(sp.EndMeters-sp.StartMeters)/1000.0,
				formatDuration(sp.DurationSeconds),
				formatPace(sp.PaceSecPerKm),
				sp.Label,
			)
			if sp.AvgHeartRate > 0 {
				fmt.Fprintf(&b, " HR %.0f", sp.AvgHeartRate)
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString("\nPacing\n")
	if a.Pacing.Strategy == StrategyUnknown {
		b.WriteString("- Not enough telemetry to compare the two halves.\n")
	} else {
		fmt.Fprintf(
			&b,
			"- First half %s/km, second half %s/km (%+.1f%%).\n",
			formatPace(a.Pacing.FirstHalfPace),
			formatPace(a.Pacing.SecondHalfPace),
			a.Pacing.ChangePct,
		)
		if a.Pacing.FastestSplit > 0 {
			fmt.Fprintf(&b, "- Fastest km %d, slowest km %d.\n", a.Pacing.FastestSplit, a.Pacing.SlowestSplit)
		}
	}

	b.WriteString("\nCoaching Notes\n- ")
	b.WriteString(pacingAssessment(a))
	b.WriteString("\n- ")
	b.WriteString(nextRunSuggestion(a))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func pacingAssessment(a *Activity) string {
	switch a.Pacing.Strategy {
	case StrategyNegativeSplit:
		return "Negative split: you finished stronger than you started, a sign there is more in the tank."
	case StrategyPositiveSplit:
		if a.Pacing.ChangePct >= 8 {
			return "Significant fade in the second half; the opening pace was above what you could hold."
		}
		return "Mild fade in the second half; start a few seconds per km slower next time."
	case StrategyEven:
		return "Even pacing throughout; effort was well judged for the distance."
	default:
		return "No pacing assessment available."
	}
}

func nextRunSuggestion(a *Activity) string {
	if !a.Scored {
		return "Record a run with distance and time to establish a baseline."
	}
	switch a.Pacing.Strategy {
	case StrategyNegativeSplit, StrategyEven:
		return fmt.Sprintf("Ready for a %s challenge a couple of points above %.1f.", a.Bucket.Label(), a.PPI)
	default:
		return fmt.Sprintf("Repeat a %s effort at a steadier pace before chasing a higher index.", a.Bucket.Label())
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func formatPace(secondsPerKm float64) string {
	if !isFinite(secondsPerKm) || secondsPerKm <= 0 {
		return "-:--"
	}
	s := int(math.Round(secondsPerKm))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func mpsToKmh(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * 3.6
}
