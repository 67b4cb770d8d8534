// Package elevation turns noisy GPS altitude samples into ascent and descent totals.
package elevation

import (
	"fmt"
	"math"
)

// Options tunes the filter. The zero value is not usable; start from DefaultOptions.
type Options struct {
	// Number of raw samples averaged into one smoothed altitude
	WindowSize int `yaml:"window_size"`

	// Largest accepted step between two consecutive averages, in meters.
	// Not time normalized.
	MaxDelta float64 `yaml:"max_delta"`

	// Fewer satellites than this means no 3D fix, so no usable altitude
	MinSatellites int `yaml:"min_satellites"`
}

// DefaultOptions returns a 4 sample window, 4 m outlier bound and 4 satellite minimum
func DefaultOptions() Options {
	return Options{
		WindowSize:    4,
		MaxDelta:      4.0,
		MinSatellites: 4,
	}
}

// Outcome describes what Add did with a sample
type Outcome int

const (
	// Rejected samples leave the filter untouched
	Rejected Outcome = iota
	// Buffered samples were stored but the window is not full yet
	Buffered
	// Baseline is the first smoothed altitude; nothing is accumulated
	Baseline
	// Accumulated means the step between averages was added to ascent or descent
	Accumulated
	// Outlier averages were discarded and the baseline kept
	Outlier
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Buffered:
		return "buffered"
	case Baseline:
		return "baseline"
	case Accumulated:
		return "accumulated"
	case Outlier:
		return "outlier"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Filter is a moving average over the last WindowSize altitudes with outlier rejection.
// It is not safe for concurrent use; a tracking session owns exactly one.
type Filter struct {
	opts Options

	buffer []float64
	index  int
	count  int

	smoothed    float64
	hasSmoothed bool

	ascent  float64
	descent float64
}

// NewFilter creates a Filter. Non-positive option values fall back to the defaults.
func NewFilter(opts Options) *Filter {
	defaults := DefaultOptions()
	if opts.WindowSize <= 0 {
		opts.WindowSize = defaults.WindowSize
	}
	if opts.MaxDelta <= 0 {
		opts.MaxDelta = defaults.MaxDelta
	}
	if opts.MinSatellites <= 0 {
		opts.MinSatellites = defaults.MinSatellites
	}

	return &Filter{
		opts:   opts,
		buffer: make([]float64, opts.WindowSize),
	}
}

// Add feeds one raw altitude reported with the given satellite count
func (f *Filter) Add(altitude float64, satellites int) Outcome {
	if satellites < f.opts.MinSatellites {
		return Rejected
	}
	if math.IsInf(altitude, 0) || math.IsNaN(altitude) {
		return Rejected
	}

	f.buffer[f.index] = altitude
	f.index = (f.index + 1) % len(f.buffer)
	if f.count < len(f.buffer) {
		f.count++
	}

	if f.count < len(f.buffer) {
		return Buffered
	}

	// Recomputed from the whole window every time
	var sum float64
	for _, v := range f.buffer {
		sum += v
	}
	avg := sum / float64(len(f.buffer))

	if !f.hasSmoothed {
		f.smoothed = avg
		f.hasSmoothed = true
		return Baseline
	}

	delta := avg - f.smoothed
	if math.Abs(delta) > f.opts.MaxDelta {
		return Outlier
	}

	if delta < 0 {
		f.descent += delta
	} else {
		f.ascent += delta
	}
	f.smoothed = avg
	return Accumulated
}

// Ascent is the positive elevation gain in meters, always >= 0
func (f *Filter) Ascent() float64 {
	return f.ascent
}

// Descent is the negative elevation gain in meters, always <= 0
func (f *Filter) Descent() float64 {
	return f.descent
}

// Smoothed returns the current baseline altitude, if one has been established
func (f *Filter) Smoothed() (float64, bool) {
	return f.smoothed, f.hasSmoothed
}

// Count is the number of samples in the window, capped at WindowSize
func (f *Filter) Count() int {
	return f.count
}

// Options returns the options in effect
func (f *Filter) Options() Options {
	return f.opts
}

// Reset clears the window, the baseline and both accumulators
func (f *Filter) Reset() {
	for i := range f.buffer {
		f.buffer[i] = 0
	}
	f.index = 0
	f.count = 0
	f.smoothed = 0
	f.hasSmoothed = false
	f.ascent = 0
	f.descent = 0
}

// State is a plain copy of the filter's internals
type State struct {
	Buffer      []float64 `json:"buffer"`
	Index       int       `json:"index"`
	Count       int       `json:"count"`
	Smoothed    float64   `json:"smoothed"`
	HasSmoothed bool      `json:"has_smoothed"`
	Ascent      float64   `json:"ascent"`
	Descent     float64   `json:"descent"`
}

// State captures the filter so it can be restored later
func (f *Filter) State() State {
	return State{
		Buffer:      append([]float64(nil), f.buffer...),
		Index:       f.index,
		Count:       f.count,
		Smoothed:    f.smoothed,
		HasSmoothed: f.hasSmoothed,
		Ascent:      f.ascent,
		Descent:     f.descent,
	}
}

// Restore replaces the filter's internals with s. The window size must match.
func (f *Filter) Restore(s State) error {
	if len(s.Buffer) != len(f.buffer) {
		return fmt.Errorf("elevation state has %d samples, filter window is %d", len(s.Buffer), len(f.buffer))
	}
	if s.Index < 0 || s.Index >= len(f.buffer) || s.Count < 0 || s.Count > len(f.buffer) {
		return fmt.Errorf("elevation state index %d / count %d out of range", s.Index, s.Count)
	}
	if s.Ascent < 0 || s.Descent > 0 {
		return fmt.Errorf("elevation state has ascent %v / descent %v of the wrong sign", s.Ascent, s.Descent)
	}

	copy(f.buffer, s.Buffer)
	f.index = s.Index
	f.count = s.Count
	f.smoothed = s.Smoothed
	f.hasSmoothed = s.HasSmoothed
	f.ascent = s.Ascent
	f.descent = s.Descent
	return nil
}
