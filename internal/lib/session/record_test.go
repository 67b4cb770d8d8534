package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_LogLine(t *testing.T) {
	record := Record{
		Status:        StatusTrackingOK,
		Accepted:      true,
		Distance:      111.19033232275478,
		DeltaDistance: 111.19033232275478,
		Accuracy:      5,
		InstantSpeed:  11.119033232275478,
		DeltaSeconds:  10,
		Altitude:      100,
		Latitude:      48.001,
		Longitude:     2.0,
		Satellites:    8,
		UpdateCount:   2,
	}

	assert.Equal(t,
		"OLC; 111.19; 111.19; 5.00; 11.12; 10.00; 100.00; 0.00; 48.001000;  2.000000; -1.0; 0.0; 0.0; 8; 2; tracking ok;",
		record.LogLine())

	record.SmoothedAltitude = 101.26
	record.HasSmoothedAltitude = true
	record.Ascent = 3.5
	record.Descent = -1.24
	assert.Contains(t, record.LogLine(), "; 101.3; 3.5; -1.2; 8; 2; tracking ok;")
}

func TestRecord_FieldCountMatchesFormat(t *testing.T) {
	line := Record{Status: StatusBadAccuracy}.LogLine()
	header := strings.TrimPrefix(CSVFormat, "CSV format : ")

	assert.Equal(t, strings.Count(header, ";"), strings.Count(line, ";"))
	assert.True(t, strings.HasSuffix(line, "; bad accuracy;"))
}

func TestSignalQuality(t *testing.T) {
	tests := []struct {
		satellites int32
		want       Signal
	}{
		{0, SignalNone},
		{2, SignalNone},
		{3, SignalLow},
		{4, SignalLow},
		{5, SignalAverage},
		{6, SignalAverage},
		{7, SignalGood},
		{8, SignalGood},
		{9, SignalExcellent},
		{24, SignalExcellent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SignalQuality(tt.satellites), "%d satellites", tt.satellites)
	}
}
