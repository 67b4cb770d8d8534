package track

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml"

	"github.com/dpup/runtrack/server/internal/lib/geo"
)

// WriteKML writes points as a single KML LineString placemark named name.
// KML coordinates are longitude first.
func WriteKML(w io.Writer, name string, points []geo.Point) error {
	coords := make([]kml.Coordinate, len(points))
	for i, p := range points {
		coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude, Alt: p.Altitude}
	}

	doc := kml.KML(
		kml.Document(
			kml.Name(name),
			kml.Placemark(
				kml.Name(name),
				kml.LineString(
					kml.Tessellate(true),
					kml.AltitudeMode(kml.AltitudeModeAbsolute),
					kml.Coordinates(coords...),
				),
			),
		),
	)

	return doc.WriteIndent(w, "", "  ")
}

type kmlFile struct {
	Document *kmlContainer `xml:"Document"`
}

// kmlContainer holds the Folders and Placemarks of a Document or Folder in
// the order they appear
type kmlContainer struct {
	Items []kmlItem
}

type kmlItem struct {
	Folder    *kmlContainer
	Placemark *kmlPlacemark
}

func (c *kmlContainer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Folder", "Document":
				var folder kmlContainer
				if err := d.DecodeElement(&folder, &t); err != nil {
					return err
				}
				c.Items = append(c.Items, kmlItem{Folder: &folder})
			case "Placemark":
				var pm kmlPlacemark
				if err := d.DecodeElement(&pm, &t); err != nil {
					return err
				}
				c.Items = append(c.Items, kmlItem{Placemark: &pm})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type kmlPlacemark struct {
	LineString *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"LineString"`
	Point *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

var ErrNoKMLGeometry = errors.New("kml has no LineString or Point placemarks")

// ReadKML collects the coordinates of every LineString and Point placemark in
// document order, walking folders depth first
func ReadKML(r io.Reader) ([]geo.Point, error) {
	var doc kmlFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}
	if doc.Document == nil {
		return nil, ErrNoKMLGeometry
	}

	var points []geo.Point
	if err := collectKML(doc.Document, &points); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoKMLGeometry
	}
	return points, nil
}

func collectKML(c *kmlContainer, points *[]geo.Point) error {
	for _, item := range c.Items {
		if item.Folder != nil {
			if err := collectKML(item.Folder, points); err != nil {
				return err
			}
			continue
		}

		pm := item.Placemark
		var raw string
		switch {
		case pm.LineString != nil:
			raw = pm.LineString.Coordinates
		case pm.Point != nil:
			raw = pm.Point.Coordinates
		default:
			continue
		}

		coords, err := parseKMLCoordinates(raw)
		if err != nil {
			return err
		}
		*points = append(*points, coords...)
	}
	return nil
}

// parseKMLCoordinates reads whitespace separated "lon,lat[,alt]" tuples
func parseKMLCoordinates(raw string) ([]geo.Point, error) {
	tuples := strings.Fields(raw)
	points := make([]geo.Point, 0, len(tuples))

	for i, tuple := range tuples {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("kml coordinate %d %q: expected lon,lat[,alt]", i+1, tuple)
		}

		values := make([]float64, len(parts))
		for j, part := range parts {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("kml coordinate %d %q: %w", i+1, tuple, err)
			}
			values[j] = v
		}

		p := geo.NewPoint(values[1], values[0])
		if len(values) == 3 {
			p.Altitude = values[2]
		}
		points = append(points, p)
	}
	return points, nil
}

// LoadKML reads the track in a KML file
func LoadKML(path string) ([]geo.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open KML file: %w", err)
	}
	defer f.Close()
	return ReadKML(f)
}
