package runfit

import "math"

const (
	splitMeters = 1000.0

	// A trailing partial split shorter than this is dropped.
	minPartialSplitMeters = 50.0

	// Splits within this fraction of the run's average pace are "steady".
	splitPaceBand = 0.03
)

// Pacing strategies.
const (
	StrategyEven          = "even"
	StrategyNegativeSplit = "negative_split"
	StrategyPositiveSplit = "positive_split"
	StrategyUnknown       = "unknown"
)

// Split is one kilometre of the run; the last one may be partial.
type Split struct {
	Index           int     `json:"index"`
	StartMeters     float64 `json:"start_m"`
	EndMeters       float64 `json:"end_m"`
	StartOffsetSec  float64 `json:"start_offset_sec"`
	DurationSeconds float64 `json:"duration_sec"`
	PaceSecPerKm    float64 `json:"pace_sec_per_km"`
	AvgHeartRate    float64 `json:"avg_heart_rate_bpm,omitempty"`
	Label           string  `json:"label"`
}

// Pacing compares the two halves of the run.
type Pacing struct {
	FirstHalfPace  float64 `json:"first_half_pace_sec_per_km"`
	SecondHalfPace float64 `json:"second_half_pace_sec_per_km"`
	ChangePct      float64 `json:"change_pct"`
	FastestSplit   int     `json:"fastest_split,omitempty"`
	SlowestSplit   int     `json:"slowest_split,omitempty"`
	Strategy       string  `json:"strategy"`
}

// buildSplits cuts samples at every whole kilometre. Crossing times are
// interpolated between the samples either side of the boundary.
func buildSplits(samples []Sample) []Split {
	if len(samples) < 2 {
		return nil
	}
	total := samples[len(samples)-1].DistanceMeters
	if total <= 0 {
		return nil
	}

	var splits []Split
	startM, startT := 0.0, float64(samples[0].OffsetSec)
	for startM < total {
		endM := math.Min(startM+splitMeters, total)
		if endM < total || endM-startM >= minPartialSplitMeters || len(splits) == 0 {
			endT := timeAtDistance(samples, endM)
			sp := Split{
				Index:           len(splits) + 1,
				StartMeters:     startM,
				EndMeters:       endM,
				StartOffsetSec:  startT,
				DurationSeconds: endT - startT,
				AvgHeartRate:    heartRateBetween(samples, startT, endT),
			}
			if sp.DurationSeconds > 0 {
				sp.PaceSecPerKm = sp.DurationSeconds / ((endM - startM) / 1000.0)
			}
			splits = append(splits, sp)
			startT = endT
		}
		startM = endM
	}

	labelSplits(splits, samples)
	return splits
}

func labelSplits(splits []Split, samples []Sample) {
	last := samples[len(samples)-1]
	if last.DistanceMeters <= 0 {
		return
	}
	avg := float64(last.OffsetSec-samples[0].OffsetSec) / (last.DistanceMeters / 1000.0)
	for i := range splits {
		sp := &splits[i]
		switch {
		case sp.PaceSecPerKm <= 0:
			sp.Label = "unknown"
		case sp.PaceSecPerKm < avg*(1-splitPaceBand):
			sp.Label = "fast"
		case sp.PaceSecPerKm > avg*(1+splitPaceBand):
			sp.Label = "slow"
		default:
			sp.Label = "steady"
		}
	}
}

func summarizePacing(samples []Sample, splits []Split) Pacing {
	p := Pacing{Strategy: StrategyUnknown}
	if len(samples) < 2 {
		return p
	}
	first := samples[0]
	last := samples[len(samples)-1]
	half := last.DistanceMeters / 2
	if half <= 0 {
		return p
	}

	tHalf := timeAtDistance(samples, half)
	halfKm := half / 1000.0
	p.FirstHalfPace = (tHalf - float64(first.OffsetSec)) / halfKm
	p.SecondHalfPace = (float64(last.OffsetSec) - tHalf) / halfKm
	if p.FirstHalfPace > 0 {
		p.ChangePct = (p.SecondHalfPace/p.FirstHalfPace - 1.0) * 100.0
	}
	switch {
	case p.FirstHalfPace <= 0 || p.SecondHalfPace <= 0:
	case p.ChangePct <= -2:
		p.Strategy = StrategyNegativeSplit
	case p.ChangePct >= 3:
		p.Strategy = StrategyPositiveSplit
	default:
		p.Strategy = StrategyEven
	}

	fastest, slowest := -1, -1
	for i, sp := range splits {
		if sp.PaceSecPerKm <= 0 || sp.EndMeters-sp.StartMeters < splitMeters {
			continue
		}
		if fastest < 0 || sp.PaceSecPerKm < splits[fastest].PaceSecPerKm {
			fastest = i
		}
		if slowest < 0 || sp.PaceSecPerKm > splits[slowest].PaceSecPerKm {
			slowest = i
		}
	}
	if fastest >= 0 {
		p.FastestSplit = splits[fastest].Index
		p.SlowestSplit = splits[slowest].Index
	}
	return p
}

// timeAtDistance returns the offset at which the run first reached meters.
func timeAtDistance(samples []Sample, meters float64) float64 {
	prev := samples[0]
	if meters <= prev.DistanceMeters {
		return float64(prev.OffsetSec)
	}
	for _, s := range samples[1:] {
		if s.DistanceMeters >= meters {
			span := s.DistanceMeters - prev.DistanceMeters
			if span <= 0 {
				return float64(s.OffsetSec)
			}
			frac := (meters - prev.DistanceMeters) / span
			return float64(prev.OffsetSec) + frac*float64(s.OffsetSec-prev.OffsetSec)
		}
		prev = s
	}
	return float64(prev.OffsetSec)
}

func heartRateBetween(samples []Sample, from, to float64) float64 {
	var hr []float64
	for _, s := range samples {
		t := float64(s.OffsetSec)
		if t < from || t > to || s.HeartRate <= 0 {
			continue
		}
		hr = append(hr, s.HeartRate)
	}
	return average(hr)
}
