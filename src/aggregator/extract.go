package aggregator

import "statcan-proxy/src/internal/types"

// ValueExtractor pulls one number out of a provider entry. ok is false when the
// entry lacks the field, in which case the loader substitutes 0.
type ValueExtractor func(res types.VectorResult) (value float64, ok bool)

// FirstObservation reads the value of the first data point
func FirstObservation(res types.VectorResult) (float64, bool) {
	points := res.Points()
	if len(points) == 0 || points[0].Value == nil {
		return 0, false
	}
	return *points[0].Value, true
}

// LatestObservation reads the value of the last data point. The provider lists
// the latestN points oldest first.
func LatestObservation(res types.VectorResult) (float64, bool) {
	points := res.Points()
	if len(points) == 0 || points[len(points)-1].Value == nil {
		return 0, false
	}
	return *points[len(points)-1].Value, true
}
