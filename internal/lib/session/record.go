package session

import (
	"fmt"

	"github.com/dpup/runtrack/server/internal/lib/geo"
)

// RecordTag opens every per-update log line
const RecordTag = "OLC"

// CSVFormat describes the columns of Record.LogLine. It is written in the log header.
const CSVFormat = "CSV format : OLC; Distance; Delta Dist; Accuracy; Inst Speed; deltaTSeconds; altitude; bearing; latitude; longitude; lastAltitude; ascent; descent; SatNumber; UpdateNumber; State;"

// Record is the outcome of one Update, emitted whether or not the fix was accepted
type Record struct {
	Status Status `json:"status"`

	// Accepted is true when the fix passed the accuracy gate
	Accepted bool `json:"accepted"`

	// Tracking is the tracking state the update was processed under
	Tracking bool `json:"tracking"`

	Distance      geo.Meters `json:"distance_m"`
	DeltaDistance geo.Meters `json:"delta_distance_m"`
	Accuracy      float32    `json:"accuracy_m"`
	InstantSpeed  float64    `json:"instant_speed_mps"`
	DeltaSeconds  float64    `json:"delta_t_s"`
	Altitude      float64    `json:"altitude_m"`
	Bearing       float32    `json:"bearing_deg"`
	Latitude      float64    `json:"lat"`
	Longitude     float64    `json:"lng"`

	SmoothedAltitude    float64 `json:"smoothed_altitude_m"`
	HasSmoothedAltitude bool    `json:"has_smoothed_altitude"`
	Ascent              float64 `json:"ascent_m"`
	Descent             float64 `json:"descent_m"`

	Satellites  int32 `json:"satellites"`
	UpdateCount int64 `json:"update_count"`
}

// LogLine renders the record in the semicolon separated layout existing log
// tooling parses. A missing smoothed altitude is written as -1.0.
func (r Record) LogLine() string {
	smoothed := -1.0
	if r.HasSmoothedAltitude {
		smoothed = r.SmoothedAltitude
	}

	return fmt.Sprintf("%s; %4.2f; %4.2f; %4.2f; %4.2f; %4.2f; %4.2f; %4.2f; %9.6f; %9.6f; %4.1f; %3.1f; %3.1f; %d; %d; %s;",
		RecordTag,
		float64(r.Distance),
		float64(r.DeltaDistance),
		r.Accuracy,
		r.InstantSpeed,
		r.DeltaSeconds,
		r.Altitude,
		r.Bearing,
		r.Latitude,
		r.Longitude,
		smoothed,
		r.Ascent,
		r.Descent,
		r.Satellites,
		r.UpdateCount,
		r.Status,
	)
}
