package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/dpup/runtrack/server/internal/config"
	"github.com/dpup/runtrack/server/internal/lib/session"
)

// Replays a recorded run through a tracking session and writes the session log.
//
// CSV input has one fix per row:
//
//	elapsed_seconds,lat,lng,alt,accuracy,satellites[,bearing,speed]
//
// A first row that does not parse as numbers is treated as a header. GPX input
// uses the point timestamps and elevations with a fixed accuracy and satellite count.
func main() {
	input := flag.String("file", "", "Fix file (.csv or .gpx)")
	configPath := flag.String("config", "", "Optional YAML config file")
	logDir := flag.String("log-dir", "", "Session log directory (default from config)")
	accuracy := flag.Float64("accuracy", 5, "Accuracy assumed for GPX points, meters")
	satellites := flag.Int("satellites", 8, "Satellite count assumed for GPX points")
	flag.Parse()

	if *input == "" {
		fmt.Println("Example usage:")
		fmt.Println("  replay --file run.csv --log-dir ./logs")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logDir != "" {
		cfg.Tracking.LogDirectory = *logDir
	}

	var fixes []session.Fix
	if strings.EqualFold(filepath.Ext(*input), ".gpx") {
		fixes, err = readGPX(*input, float32(*accuracy), int32(*satellites))
	} else {
		fixes, err = readCSVFile(*input)
	}
	if err != nil {
		log.Fatalf("Failed to read fixes: %v", err)
	}

	sessionConfig, err := cfg.SessionConfig(time.Now())
	if err != nil {
		log.Fatalf("Invalid tracking settings: %v", err)
	}

	sink := session.NewFileSink(sessionConfig.LogFileName)
	sess := session.New(sessionConfig, sink)
	sess.WriteHeader()
	sess.Start()

	var rejected int
	for _, fix := range fixes {
		if record := sess.Update(fix); !record.Accepted {
			rejected++
		}
	}
	sess.Pause()

	stats := sess.Stats()
	log.Printf("Replayed %d fixes (%d rejected) into %s", len(fixes), rejected, sink.Path())
	fmt.Printf("Distance:      %.2f m\n", stats.DistanceM)
	fmt.Printf("Duration:      %s\n", session.FormatDuration(stats.ElapsedSeconds))
	fmt.Printf("Average speed: %.2f m/s\n", stats.AverageSpeedMps)
	fmt.Printf("Ascent:        %.1f m\n", stats.AscentM)
	fmt.Printf("Descent:       %.1f m\n", stats.DescentM)
	if stats.DroppedLogLines > 0 {
		log.Printf("Warning: %d log lines could not be written", stats.DroppedLogLines)
	}
}

func readCSVFile(path string) ([]session.Fix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]session.Fix, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var fixes []session.Fix
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return fixes, nil
		}
		if err != nil {
			return nil, err
		}

		fix, err := parseFix(fields)
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		fixes = append(fixes, fix)
	}
}

func parseFix(fields []string) (session.Fix, error) {
	if len(fields) < 6 {
		return session.Fix{}, fmt.Errorf("expected at least 6 fields, got %d", len(fields))
	}

	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return session.Fix{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = v
	}

	fix := session.Fix{
		ElapsedRealtimeNanos: int64(values[0] * 1e9),
		Latitude:             values[1],
		Longitude:            values[2],
		Altitude:             values[3],
		Accuracy:             float32(values[4]),
		Satellites:           int32(values[5]),
	}
	if len(values) > 6 {
		fix.Bearing = float32(values[6])
	}
	if len(values) > 7 {
		fix.Speed = float32(values[7])
	}
	return fix, nil
}

func readGPX(path string, accuracy float32, satellites int32) ([]session.Fix, error) {
	gpxFile, err := gpx.ParseFile(path)
	if err != nil {
		return nil, err
	}

	var fixes []session.Fix
	var start time.Time
	for _, trk := range gpxFile.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if start.IsZero() {
					start = p.Timestamp
				}
				fix := session.Fix{
					Latitude:             p.Latitude,
					Longitude:            p.Longitude,
					Accuracy:             accuracy,
					Satellites:           satellites,
					ElapsedRealtimeNanos: p.Timestamp.Sub(start).Nanoseconds(),
				}
				if p.Elevation.NotNull() {
					fix.Altitude = p.Elevation.Value()
				}
				fixes = append(fixes, fix)
			}
		}
	}
	return fixes, nil
}
