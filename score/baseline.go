package score

import "math"

// anchor is a world-class reference time for one distance.
type anchor struct {
	meters  float64
	seconds float64
}

// anchors must stay sorted by distance with strictly increasing times so the
// interpolated baseline is strictly increasing.
var anchors = []anchor{
	{meters: 100, seconds: 10},
	{meters: 200, seconds: 20},
	{meters: 400, seconds: 45},
	{meters: 800, seconds: 105},
	{meters: 1500, seconds: 210},
	{meters: 5000, seconds: 755},
	{meters: 10000, seconds: 1571},
	{meters: 21097.5, seconds: 3540},
	{meters: 42195, seconds: 7460},
}

// Baseline returns the world-class time in seconds for distanceMeters.
//
// Times between anchors are interpolated linearly in log-log space. Outside
// the anchor range the nearest end segment is extended with the same slope.
// Non-positive distances return 0.
func Baseline(distanceMeters float64) float64 {
	if !(distanceMeters > 0) {
		return 0
	}

	i := 0
	for i < len(anchors)-2 && distanceMeters > anchors[i+1].meters {
		i++
	}
	lower, upper := anchors[i], anchors[i+1]

	logDistRatio := math.Log(distanceMeters/lower.meters) / math.Log(upper.meters/lower.meters)
	logTimeRange := math.Log(upper.seconds) - math.Log(lower.seconds)
	return math.Exp(math.Log(lower.seconds) + logDistRatio*logTimeRange)
}
