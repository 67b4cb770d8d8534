package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := `elapsed_seconds,lat,lng,alt,accuracy,satellites,bearing,speed
0,48.0,2.0,100,5,8
7.5, 48.001, 2.0, 101, 12, 6, 90, 1.5
`
	fixes, err := readCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, fixes, 2)

	assert.Equal(t, int64(0), fixes[0].ElapsedRealtimeNanos)
	assert.Equal(t, int32(8), fixes[0].Satellites)
	assert.Equal(t, int64(7_500_000_000), fixes[1].ElapsedRealtimeNanos)
	assert.Equal(t, float32(12), fixes[1].Accuracy)
	assert.Equal(t, float32(90), fixes[1].Bearing)
	assert.Equal(t, float32(1.5), fixes[1].Speed)
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := readCSV(strings.NewReader("0,48.0,2.0,100,5,8\n5,48.1,oops,100,5,8\n"))
	assert.ErrorContains(t, err, "row 2")

	_, err = readCSV(strings.NewReader("0,48.0,2.0,100,5,8\n5,48.1\n"))
	assert.ErrorContains(t, err, "expected at least 6 fields")
}
