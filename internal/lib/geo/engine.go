package geo

// Engine computes point to point distances with one fixed algorithm
type Engine interface {
	// Distance between two points in kilometers. Non-convergence is an error.
	PointToPoint(p1, p2 Point) (Kilometers, error)

	// Same as PointToPoint for raw decimal degree pairs
	DistanceFromCoords(lat1, lon1, lat2, lon2 float64) (Kilometers, error)

	Algorithm() Algorithm
}

// engine implements the Engine interface
type engine struct {
	algorithm Algorithm
}

// NewEngine creates an Engine bound to alg
func NewEngine(alg Algorithm) (Engine, error) {
	if _, err := alg.Func(); err != nil {
		return nil, err
	}
	return &engine{algorithm: alg}, nil
}

func (e *engine) PointToPoint(p1, p2 Point) (Kilometers, error) {
	return Distance(e.algorithm, p1, p2)
}

func (e *engine) DistanceFromCoords(lat1, lon1, lat2, lon2 float64) (Kilometers, error) {
	return e.PointToPoint(NewPoint(lat1, lon1), NewPoint(lat2, lon2))
}

func (e *engine) Algorithm() Algorithm {
	return e.algorithm
}
