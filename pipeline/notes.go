package pipeline

import (
	"fmt"
	"math"
	"strings"

	runfit "github.com/lucasjlepore/ppi-coach"
	"github.com/lucasjlepore/ppi-coach/coach"
)

func buildSessionNotes(activity *runfit.Activity, s *SessionSummaryFile) string {
	var b strings.Builder
	b.WriteString("# Coaching Session\n\n")

	c := s.Challenge
	fmt.Fprintf(&b, "## Challenge\n\n- %s: %s\n", c.Title, c.Description)
	fmt.Fprintf(&b, "- Target %.0f m in %s (%s/km), index %.1f\n", c.TargetDistance, clock(c.TargetDuration), paceClock(c.TargetPace), c.ExpectedPPI)
	if s.BestBefore > 0 {
		fmt.Fprintf(&b, "- Best %s index before this run: %.1f\n", c.Bucket.Label(), s.BestBefore)
	}

	b.WriteString("\n## Result\n\n")
	verdict := "not achieved"
	if s.Score.Achieved {
		verdict = "achieved"
	}
	fmt.Fprintf(&b, "- Index %.1f, challenge %s\n", s.Score.PPI, verdict)
	if s.BestBefore > 0 && s.Score.PPI > s.BestBefore {
		fmt.Fprintf(&b, "- New %s best (+%.1f)\n", c.Bucket.Label(), s.Score.PPI-s.BestBefore)
	}

	var total int64
	for _, v := range s.ZoneSeconds {
		total += v
	}
	if total > 0 {
		b.WriteString("\n## Pace Zones\n\n")
		for _, z := range []coach.PaceZone{coach.OnTarget, coach.TooFast, coach.TooSlow} {
			sec := s.ZoneSeconds[z.String()]
			fmt.Fprintf(&b, "- %s: %s (%.0f%%)\n", z, clock(sec), 100*float64(sec)/float64(total))
		}
	}

	if len(s.NextChallenges) > 0 {
		b.WriteString("\n## Next Challenges\n\n")
		for _, n := range s.NextChallenges {
			fmt.Fprintf(&b, "- %s (%s): %s\n", n.Title, n.Bucket.Label(), n.Description)
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	b.WriteString("\n## Run\n\n")
	b.WriteString(runfit.BuildRunNotes(activity))
	b.WriteByte('\n')
	return b.String()
}

func clock(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func paceClock(secPerKm float64) string {
	if math.IsNaN(secPerKm) || math.IsInf(secPerKm, 0) || secPerKm <= 0 {
		return "-:--"
	}
	return clock(int64(math.Round(secPerKm)))
}
