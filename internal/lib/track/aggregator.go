package track

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dpup/runtrack/server/internal/lib/geo"
)

var (
	ErrEmptyTrack  = errors.New("track has no points")
	ErrUnknownMode = errors.New("unknown aggregation mode")
)

// Mode selects what Distance reports for a track
type Mode int

const (
	// ModeCumulative returns the sum of every segment
	ModeCumulative Mode = iota

	// ModeLastSegment returns only the final segment's distance, the
	// return-last-segment reading of the batch routine. Kept selectable so
	// results under that reading can be compared with cumulative ones.
	ModeLastSegment
)

func (m Mode) String() string {
	switch m {
	case ModeCumulative:
		return "cumulative"
	case ModeLastSegment:
		return "last-segment"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps "cumulative" or "last-segment" to a Mode
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cumulative", "sum", "":
		return ModeCumulative, nil
	case "last-segment", "last_segment", "last":
		return ModeLastSegment, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Aggregator sums consecutive segment distances over an ordered point sequence
type Aggregator struct {
	Algorithm geo.Algorithm
	Mode      Mode
}

// NewAggregator creates an Aggregator
func NewAggregator(alg geo.Algorithm, mode Mode) *Aggregator {
	return &Aggregator{Algorithm: alg, Mode: mode}
}

// Segments returns the distance of each consecutive pair, len(points)-1 values
func (a *Aggregator) Segments(points []geo.Point) ([]geo.Kilometers, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTrack
	}

	fn, err := a.Algorithm.Func()
	if err != nil {
		return nil, err
	}

	segments := make([]geo.Kilometers, 0, len(points)-1)
	start := points[0]
	for i := 1; i < len(points); i++ {
		dest := points[i]
		d := fn(start, dest)
		if d.Failed() {
			return nil, fmt.Errorf("segment %d: %w", i-1, geo.ErrNoConvergence)
		}
		segments = append(segments, d)
		start = dest
	}

	return segments, nil
}

// Distance computes the track distance in kilometers according to the Mode.
// A single point track is 0 km long.
func (a *Aggregator) Distance(points []geo.Point) (geo.Kilometers, error) {
	segments, err := a.Segments(points)
	if err != nil {
		return 0, err
	}

	switch a.Mode {
	case ModeCumulative:
		var total geo.Kilometers
		for _, d := range segments {
			total += d
		}
		return total, nil
	case ModeLastSegment:
		if len(segments) == 0 {
			return 0, nil
		}
		return segments[len(segments)-1], nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownMode, int(a.Mode))
}
