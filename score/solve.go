package score

import "math"

const (
	// solverMaxIter caps Newton/bisection steps in solveRatio.
	solverMaxIter = 64
	// solverTolerance is the stopping step size in log-ratio space.
	solverTolerance = 1e-12
	// bracketMaxExpand caps the bracket doubling before iteration starts.
	bracketMaxExpand = 60
)

// solveRatio finds the time/baseline ratio whose index equals target. ok is
// false when the iteration cap is reached first.
//
// It works on v = ln(ratio), where
//
//	h(v)  = ln(Scale) - a*v - f*(e^v - 1) - ln(target)
//	h'(v) = -a - f*e^v
//
// h is strictly decreasing and concave, so Newton started at or above the
// root walks down to it without overshooting. With L = ln(Scale/target) and
// target <= Scale, both L/a (drop the fade) and ln(1 + L/f) (drop the decay)
// have h <= 0, so the smaller of the two is such a start. Steps that leave
// the sign-change bracket fall back to bisection.
func solveRatio(target float64) (ratio float64, ok bool) {
	logTarget := math.Log(target)
	h := func(v float64) float64 {
		return math.Log(Scale) - decayExponent*v - fadeRate*(math.Exp(v)-1) - logTarget
	}
	dh := func(v float64) float64 {
		return -decayExponent - fadeRate*math.Exp(v)
	}

	l := math.Log(Scale) - logTarget
	v := l / decayExponent
	if l > 0 {
		v = math.Min(v, math.Log1p(l/fadeRate))
	}

	lo, hi := v-1, v+1
	for i, step := 0, 1.0; h(lo) <= 0 && i < bracketMaxExpand; i++ {
		step *= 2
		lo -= step
	}
	for i, step := 0, 1.0; h(hi) >= 0 && i < bracketMaxExpand; i++ {
		step *= 2
		hi += step
	}

	for i := 0; i < solverMaxIter; i++ {
		hv := h(v)
		if hv == 0 {
			return math.Exp(v), true
		}
		if hv > 0 {
			lo = v
		} else {
			hi = v
		}

		next := v - hv/dh(v)
		if !(next > lo && next < hi) {
			next = lo + (hi-lo)/2
		}
		if math.Abs(next-v) < solverTolerance || hi-lo < solverTolerance {
			return math.Exp(next), true
		}
		v = next
	}
	return math.Exp(v), false
}
