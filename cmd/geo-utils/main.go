package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dpup/runtrack/server/internal/config"
	"github.com/dpup/runtrack/server/internal/lib/geo"
	"github.com/dpup/runtrack/server/internal/lib/track"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "point-distance":
		handlePointDistance()
	case "track-distance":
		handleTrackDistance()
	case "undersample":
		handleUndersample()
	case "midpoint":
		handleMidpoint()
	case "sexagesimal":
		handleSexagesimal()
	case "decode-polyline":
		handleDecodePolyline()
	case "export-kml":
		handleExportKML()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePointDistance() {
	fs := flag.NewFlagSet("point-distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils point-distance --lat1 48.8588589 --lng1 2.3470599 --lat2 44.9102669 --lng2 5.7860659")
		fmt.Println("  (Distance between Paris and La Mure)")
		os.Exit(1)
	}

	p1 := geo.NewPoint(*lat1, *lng1)
	p2 := geo.NewPoint(*lat2, *lng2)

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: %s (%s, %s)\n", p1, geo.Sexagesimal(p1.Latitude), geo.Sexagesimal(p1.Longitude))
	fmt.Printf("  Point 2: %s (%s, %s)\n", p2, geo.Sexagesimal(p2.Latitude), geo.Sexagesimal(p2.Longitude))
	for _, alg := range geo.Algorithms {
		d, err := geo.Distance(alg, p1, p2)
		if err != nil {
			fmt.Printf("  %-12s %v\n", alg.String()+":", err)
			continue
		}
		fmt.Printf("  %-12s %.6f km (%.2f m)\n", alg.String()+":", d, d.Meters())
	}
}

// aggregatorFlags adds --algorithm and --mode defaulting to the config file values
func aggregatorFlags(fs *flag.FlagSet) (configPath, algorithm, mode *string) {
	configPath = fs.String("config", "", "Optional YAML config file")
	algorithm = fs.String("algorithm", "", "great-circle, haversine or vincenty (default from config)")
	mode = fs.String("mode", "", "cumulative or last-segment (default from config)")
	return configPath, algorithm, mode
}

func buildAggregator(configPath, algorithm, mode string) *track.Aggregator {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if algorithm != "" {
		cfg.Aggregation.Algorithm = algorithm
	}
	if mode != "" {
		cfg.Aggregation.Mode = mode
	}

	agg, err := cfg.Aggregator()
	if err != nil {
		log.Fatalf("Invalid aggregation settings: %v", err)
	}
	return agg
}

func loadTrack(path string) []geo.Point {
	if path == "" {
		log.Fatal("--file is required")
	}
	points, err := track.Load(path)
	if err != nil {
		log.Fatalf("Failed to load track: %v", err)
	}
	return points
}

func handleTrackDistance() {
	fs := flag.NewFlagSet("track-distance", flag.ExitOnError)
	path := fs.String("file", "", "Positions file (lat lng per line) or .gpx")
	segments := fs.Bool("segments", false, "Print every segment")
	configPath, algorithm, mode := aggregatorFlags(fs)

	fs.Parse(os.Args[2:])

	points := loadTrack(*path)
	agg := buildAggregator(*configPath, *algorithm, *mode)

	if *segments {
		segs, err := agg.Segments(points)
		if err != nil {
			log.Fatalf("Error measuring track: %v", err)
		}
		for i, d := range segs {
			fmt.Printf("  %4d: %.6f km\n", i, d)
		}
	}

	d, err := agg.Distance(points)
	if err != nil {
		log.Fatalf("Error measuring track: %v", err)
	}

	fmt.Printf("Track: %s\n", *path)
	fmt.Printf("  Points: %d\n", len(points))
	fmt.Printf("  Algorithm: %s, mode: %s\n", agg.Algorithm, agg.Mode)
	fmt.Printf("  Distance: %.6f km\n", d)
}

func handleUndersample() {
	fs := flag.NewFlagSet("undersample", flag.ExitOnError)
	path := fs.String("file", "", "Positions file (lat lng per line) or .gpx")
	maxStep := fs.Int("max-step", 10, "Largest sampling step")
	configPath, _, mode := aggregatorFlags(fs)

	fs.Parse(os.Args[2:])

	points := loadTrack(*path)
	agg := buildAggregator(*configPath, "", *mode)

	rows, err := track.CompareAlgorithms(points, *maxStep, agg.Mode)
	if err != nil {
		log.Fatalf("Error comparing algorithms: %v", err)
	}

	fmt.Printf("%5s %7s %14s %14s %14s\n", "step", "points", "great-circle", "haversine", "vincenty")
	for _, row := range rows {
		fmt.Printf("%5d %7d %14.6f %14.6f %14.6f\n", row.Step, row.Points, row.GreatCircle, row.Haversine, row.Vincenty)
	}
}

func handleMidpoint() {
	fs := flag.NewFlagSet("midpoint", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	center := geo.Midpoint(geo.NewPoint(*lat1, *lng1), geo.NewPoint(*lat2, *lng2))
	fmt.Printf("Midpoint: %s\n", center)
}

func handleSexagesimal() {
	fs := flag.NewFlagSet("sexagesimal", flag.ExitOnError)
	degrees := fs.Float64("degrees", 0, "Decimal degrees")

	fs.Parse(os.Args[2:])

	fmt.Println(geo.Sexagesimal(*degrees))
}

func handleDecodePolyline() {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string")

	fs.Parse(os.Args[2:])

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils decode-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		os.Exit(1)
	}

	points, err := geo.DecodePolyline(*polylineStr)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}

	agg := track.NewAggregator(geo.Vincenty, track.ModeCumulative)
	d, err := agg.Distance(points)
	if err != nil {
		log.Fatalf("Error measuring polyline: %v", err)
	}

	fmt.Printf("Decoded polyline: %d points, %.3f km\n", len(points), d)
	for i, p := range points {
		fmt.Printf("  %d: %s\n", i, p)
	}
}

func handleExportKML() {
	fs := flag.NewFlagSet("export-kml", flag.ExitOnError)
	path := fs.String("file", "", "Positions file (lat lng per line) or .gpx")
	out := fs.String("out", "", "Output file (default stdout)")
	name := fs.String("name", "Track", "Placemark name")

	fs.Parse(os.Args[2:])

	points := loadTrack(*path)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	if err := track.WriteKML(w, *name, points); err != nil {
		log.Fatalf("Failed to write KML: %v", err)
	}
}

func printUsage() {
	fmt.Println("Geo Utils - distance and track tooling")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  geo-utils <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  point-distance   Distance between two points under every algorithm")
	fmt.Println("  track-distance   Length of a positions or GPX file")
	fmt.Println("  undersample      Compare algorithms as a track is undersampled")
	fmt.Println("  midpoint         Arithmetic midpoint of two points")
	fmt.Println("  sexagesimal      Format decimal degrees as degrees, minutes and seconds")
	fmt.Println("  decode-polyline  Decode and measure an encoded polyline")
	fmt.Println("  export-kml       Write a track as a KML LineString")
	fmt.Println("  help             Show this help message")
}
