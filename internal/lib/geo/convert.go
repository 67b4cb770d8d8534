package geo

import (
	"fmt"
	"math"
	"strconv"
)

// ToRadians converts decimal degrees to radians
func ToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// ToDegrees converts radians to decimal degrees
func ToDegrees(radians float64) float64 {
	return radians / math.Pi * 180.0
}

// Midpoint returns the arithmetic mean of each coordinate of p1 and p2.
// This is not the geodesic midpoint; it is only meaningful for nearby points.
func Midpoint(p1, p2 Point) Point {
	return Point{
		Latitude:  (p1.Latitude + p2.Latitude) / 2.0,
		Longitude: (p1.Longitude + p2.Longitude) / 2.0,
		Altitude:  (p1.Altitude + p2.Altitude) / 2.0,
	}
}

// Sexagesimal formats decimal degrees as degrees, minutes and seconds,
// e.g. 121.136 becomes 121°8'9.6". Seconds keep at most 2 decimals.
func Sexagesimal(degrees float64) string {
	deg := int(degrees)
	minutes := (degrees - float64(deg)) * 60.0
	min := int(minutes)
	sec := (minutes - float64(min)) * 60.0
	sec = math.Round(sec*100) / 100

	return fmt.Sprintf("%d°%d'%s\"", deg, min, strconv.FormatFloat(sec, 'f', -1, 64))
}
