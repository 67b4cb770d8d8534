package elevation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// warmFilter returns a filter whose baseline is 100 m
func warmFilter(t *testing.T) *Filter {
	t.Helper()
	f := NewFilter(DefaultOptions())
	for i := 0; i < 3; i++ {
		require.Equal(t, Buffered, f.Add(100, 8))
	}
	require.Equal(t, Baseline, f.Add(100, 8))
	return f
}

func TestFilter_WarmUp(t *testing.T) {
	f := NewFilter(DefaultOptions())

	_, ok := f.Smoothed()
	assert.False(t, ok)

	assert.Equal(t, Buffered, f.Add(98, 5))
	assert.Equal(t, Buffered, f.Add(100, 5))
	assert.Equal(t, Buffered, f.Add(102, 5))
	assert.Equal(t, 3, f.Count())

	assert.Equal(t, Baseline, f.Add(104, 5))
	smoothed, ok := f.Smoothed()
	require.True(t, ok)
	assert.Equal(t, 101.0, smoothed)
	assert.Equal(t, 0.0, f.Ascent(), "the first average only sets the baseline")
	assert.Equal(t, 0.0, f.Descent())
}

func TestFilter_ConstantAltitude(t *testing.T) {
	f := NewFilter(DefaultOptions())
	for i := 0; i < 50; i++ {
		f.Add(356.25, 6)
	}
	assert.Equal(t, 0.0, f.Ascent())
	assert.Equal(t, 0.0, f.Descent())
	assert.Equal(t, 4, f.Count())
}

func TestFilter_AscentAndDescent(t *testing.T) {
	f := warmFilter(t)

	assert.Equal(t, Accumulated, f.Add(104, 8)) // window 104,100,100,100 -> 101
	assert.Equal(t, Accumulated, f.Add(104, 8)) // 104,104,100,100 -> 102
	assert.Equal(t, 2.0, f.Ascent())

	assert.Equal(t, Accumulated, f.Add(92, 8)) // 104,104,92,100 -> 100
	assert.Equal(t, 2.0, f.Ascent())
	assert.Equal(t, -2.0, f.Descent())

	smoothed, _ := f.Smoothed()
	assert.Equal(t, 100.0, smoothed)
}

func TestFilter_OutlierRejection(t *testing.T) {
	f := warmFilter(t)

	// 120,100,100,100 averages 105: a 5 m jump is discarded
	assert.Equal(t, Outlier, f.Add(120, 8))
	assert.Equal(t, 0.0, f.Ascent())
	assert.Equal(t, 0.0, f.Descent())
	smoothed, _ := f.Smoothed()
	assert.Equal(t, 100.0, smoothed, "baseline must not move on an outlier")

	// 120,84,100,100 averages 101, measured against the untouched 100 m baseline
	assert.Equal(t, Accumulated, f.Add(84, 8))
	assert.Equal(t, 1.0, f.Ascent())
	smoothed, _ = f.Smoothed()
	assert.Equal(t, 101.0, smoothed)
}

func TestFilter_BoundIsInclusive(t *testing.T) {
	f := warmFilter(t)

	// 116,100,100,100 averages exactly 104
	assert.Equal(t, Accumulated, f.Add(116, 8))
	assert.Equal(t, 4.0, f.Ascent())
}

func TestFilter_RejectsUnusableSamples(t *testing.T) {
	f := warmFilter(t)
	before := f.State()

	assert.Equal(t, Rejected, f.Add(140, 3))
	assert.Equal(t, Rejected, f.Add(math.NaN(), 9))
	assert.Equal(t, Rejected, f.Add(math.Inf(1), 9))
	assert.Equal(t, Rejected, f.Add(math.Inf(-1), 9))

	assert.Equal(t, before, f.State(), "rejected samples must not touch the buffer")
}

func TestFilter_Reset(t *testing.T) {
	f := warmFilter(t)
	f.Add(104, 8)
	require.Equal(t, 1.0, f.Ascent())

	f.Reset()
	assert.Equal(t, 0.0, f.Ascent())
	assert.Equal(t, 0.0, f.Descent())
	assert.Equal(t, 0, f.Count())
	_, ok := f.Smoothed()
	assert.False(t, ok)
	assert.Equal(t, Buffered, f.Add(100, 8))
}

func TestFilter_StateRoundTrip(t *testing.T) {
	f := warmFilter(t)
	f.Add(104, 8)
	f.Add(92, 8)

	restored := NewFilter(DefaultOptions())
	require.NoError(t, restored.Restore(f.State()))
	assert.Equal(t, f.State(), restored.State())

	// Both continue identically
	assert.Equal(t, f.Add(96, 8), restored.Add(96, 8))
	assert.Equal(t, f.Descent(), restored.Descent())
}

func TestFilter_RestoreValidation(t *testing.T) {
	f := NewFilter(DefaultOptions())

	assert.Error(t, f.Restore(State{Buffer: []float64{1, 2}}))
	assert.Error(t, f.Restore(State{Buffer: make([]float64, 4), Index: 4}))
	assert.Error(t, f.Restore(State{Buffer: make([]float64, 4), Ascent: -1}))
}

func TestNewFilter_Defaults(t *testing.T) {
	f := NewFilter(Options{})
	assert.Equal(t, DefaultOptions(), f.Options())

	assert.Equal(t, Rejected, f.Add(100, 0), "a zero value filter still needs a 3D fix")
	assert.Equal(t, Rejected, f.Add(100, 3))
	assert.Equal(t, Buffered, f.Add(100, 4))

	custom := NewFilter(Options{WindowSize: 2, MaxDelta: 1, MinSatellites: 1})
	assert.Equal(t, Rejected, custom.Add(10, 0))
	assert.Equal(t, Buffered, custom.Add(10, 1))
	assert.Equal(t, Baseline, custom.Add(10, 1))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "outlier", Outlier.String())
	assert.Equal(t, "accumulated", Accumulated.String())
}
