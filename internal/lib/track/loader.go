package track

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/dpup/runtrack/server/internal/lib/geo"
)

// LoadError reports the first unparsable line of a positions file
type LoadError struct {
	Line int
	Text string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("positions line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadPositions reads one "latitude longitude" pair per line, in decimal degrees.
// Blank lines are skipped. Any other malformed line fails the whole load.
func LoadPositions(r io.Reader) ([]geo.Point, error) {
	var points []geo.Point

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		text := scanner.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, &LoadError{Line: lineNumber, Text: text, Err: fmt.Errorf("expected 2 values, got %d", len(fields))}
		}

		lat, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &LoadError{Line: lineNumber, Text: text, Err: err}
		}
		lon, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &LoadError{Line: lineNumber, Text: text, Err: err}
		}

		points = append(points, geo.NewPoint(lat, lon))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	return points, nil
}

// LoadPositionsFile opens path and parses it with LoadPositions
func LoadPositionsFile(path string) ([]geo.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open positions file: %w", err)
	}
	defer f.Close()

	return LoadPositions(f)
}

// LoadGPX flattens every track segment of a GPX file into one point sequence,
// keeping elevation when the file carries it.
func LoadGPX(path string) ([]geo.Point, error) {
	gpxData, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("read GPX file: %w", err)
	}

	return gpxPoints(gpxData), nil
}

// ParseGPX is LoadGPX for in-memory documents
func ParseGPX(data []byte) ([]geo.Point, error) {
	gpxData, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse GPX: %w", err)
	}

	return gpxPoints(gpxData), nil
}

func gpxPoints(gpxData *gpx.GPX) []geo.Point {
	var points []geo.Point
	for _, trk := range gpxData.Tracks {
		for _, segment := range trk.Segments {
			for _, p := range segment.Points {
				point := geo.NewPoint(p.Latitude, p.Longitude)
				if p.Elevation.NotNull() {
					point.Altitude = p.Elevation.Value()
				}
				points = append(points, point)
			}
		}
	}
	return points
}

// Load picks the GPX, KML or plain positions parser from the file extension
func Load(path string) ([]geo.Point, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		return LoadGPX(path)
	case ".kml":
		return LoadKML(path)
	}
	return LoadPositionsFile(path)
}
