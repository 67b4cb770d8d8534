package track

import (
	"fmt"

	"github.com/dpup/runtrack/server/internal/lib/geo"
)

// Undersample keeps every step-th point starting with the first one
func Undersample(points []geo.Point, step int) []geo.Point {
	if step <= 1 {
		return append([]geo.Point(nil), points...)
	}

	sampled := make([]geo.Point, 0, len(points)/step+1)
	for i := 0; i < len(points); i += step {
		sampled = append(sampled, points[i])
	}
	return sampled
}

// Comparison is the track distance under each algorithm for one sampling step
type Comparison struct {
	Step        int
	Points      int
	GreatCircle geo.Kilometers
	Haversine   geo.Kilometers
	Vincenty    geo.Kilometers
}

// CompareAlgorithms measures how the track distance of every algorithm shrinks as the
// track is undersampled with steps 1 to maxStep.
func CompareAlgorithms(points []geo.Point, maxStep int, mode Mode) ([]Comparison, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTrack
	}

	results := make([]Comparison, 0, maxStep)
	for step := 1; step <= maxStep; step++ {
		sampled := Undersample(points, step)
		row := Comparison{Step: step, Points: len(sampled)}

		for _, alg := range geo.Algorithms {
			d, err := NewAggregator(alg, mode).Distance(sampled)
			if err != nil {
				return nil, fmt.Errorf("step %d, %s: %w", step, alg, err)
			}
			switch alg {
			case geo.GreatCircle:
				row.GreatCircle = d
			case geo.Haversine:
				row.Haversine = d
			case geo.Vincenty:
				row.Vincenty = d
			}
		}
		results = append(results, row)
	}

	return results, nil
}
