package geo

import (
	"errors"
	"fmt"
	"strings"
)

// WGS84 ellipsoid and sphere constants, in kilometers
const (
	EquatorialRadiusKm = 6378.137
	PolarRadiusKm      = 6356.752
	MeanRadiusKm       = 6371.0

	// Flattening of the WGS84 ellipsoid
	Flattening = 1.0 / 298.257223563
)

// NoConvergence is returned by Vincenty when the iteration limit is exhausted.
// It is never a valid distance.
const NoConvergence Kilometers = -1.0

var (
	ErrUnknownAlgorithm = errors.New("unknown distance algorithm")
	ErrNoConvergence    = errors.New("vincenty iteration did not converge")
)

// Point represents a WGS84 coordinate in decimal degrees with an altitude in meters.
// Points are plain values and are never mutated once built.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Altitude  float64 `json:"alt"`
}

// NewPoint creates a Point at altitude 0. Out of range coordinates are accepted;
// the distance functions only produce degenerate results for them.
func NewPoint(latitude, longitude float64) Point {
	return Point{Latitude: latitude, Longitude: longitude}
}

// NewPoint3D creates a Point with an altitude in meters
func NewPoint3D(latitude, longitude, altitude float64) Point {
	return Point{Latitude: latitude, Longitude: longitude, Altitude: altitude}
}

// String renders the point as "lat N / lon E". Altitude isn't shown.
func (p Point) String() string {
	return fmt.Sprintf("%v N / %v E", p.Latitude, p.Longitude)
}

// Kilometers is the unit every distance function reports
type Kilometers float64

// Meters converts using the x1000 scale factor. Streaming accumulation happens in meters.
func (k Kilometers) Meters() Meters {
	return Meters(float64(k) * 1000.0)
}

// Failed reports whether k is the non-convergence sentinel (any negative value)
func (k Kilometers) Failed() bool {
	return k < 0
}

// Meters is a distance in meters
type Meters float64

// Kilometers converts back to the engine unit
func (m Meters) Kilometers() Kilometers {
	return Kilometers(float64(m) / 1000.0)
}

// Algorithm selects one of the distance models
type Algorithm int

const (
	GreatCircle Algorithm = 1
	Haversine   Algorithm = 2
	Vincenty    Algorithm = 3
)

// Algorithms lists every supported model in declaration order
var Algorithms = []Algorithm{GreatCircle, Haversine, Vincenty}

func (a Algorithm) String() string {
	switch a {
	case GreatCircle:
		return "great-circle"
	case Haversine:
		return "haversine"
	case Vincenty:
		return "vincenty"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a name such as "vincenty" or "great-circle" to an Algorithm
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "great-circle", "greatcircle", "great_circle":
		return GreatCircle, nil
	case "haversine":
		return Haversine, nil
	case "vincenty":
		return Vincenty, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// DistanceFunc is the shared signature of GreatCircle, Haversine and Vincenty
type DistanceFunc func(p1, p2 Point) Kilometers

// Func returns the point form of the algorithm
func (a Algorithm) Func() (DistanceFunc, error) {
	switch a {
	case GreatCircle:
		return GreatCircleDistance, nil
	case Haversine:
		return HaversineDistance, nil
	case Vincenty:
		return VincentyDistance, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(a))
}
