package geo

import (
	"fmt"
	"math"
)

const (
	// Latitudes closer than this (radians) make the law of cosines return 0
	// instead of risking acos of a value slightly above 1.
	sameLatitudeEpsilon = 0.0000001

	vincentyMaxIterations = 100
	vincentyTolerance     = 1e-12
)

// GreatCircleDistance computes the spherical law of cosines distance between two points.
//
// The points must not be antipodal. Two points whose latitudes differ by less than
// 1e-7 radians are reported 0 km apart, including points far apart on the same parallel.
func GreatCircleDistance(p1, p2 Point) Kilometers {
	return GreatCircleCoords(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
}

// GreatCircleCoords is the coordinate form of GreatCircleDistance
func GreatCircleCoords(lat1, lon1, lat2, lon2 float64) Kilometers {
	lat1 = ToRadians(lat1)
	lon1 = ToRadians(lon1)
	lat2 = ToRadians(lat2)
	lon2 = ToRadians(lon2)

	if math.Abs(lat1-lat2) < sameLatitudeEpsilon {
		return 0
	}

	cosAngle := math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1) + math.Sin(lat1)*math.Sin(lat2)
	return Kilometers(EquatorialRadiusKm * math.Acos(cosAngle))
}

// HaversineDistance computes the great-circle distance with the half-angle formula,
// which stays stable for short distances and near antipodes.
func HaversineDistance(p1, p2 Point) Kilometers {
	return HaversineCoords(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
}

// HaversineCoords is the coordinate form of HaversineDistance
func HaversineCoords(lat1, lon1, lat2, lon2 float64) Kilometers {
	lat1 = ToRadians(lat1)
	lon1 = ToRadians(lon1)
	lat2 = ToRadians(lat2)
	lon2 = ToRadians(lon2)

	sinSquareLat := math.Sin((lat1 - lat2) / 2.0)
	sinSquareLat *= sinSquareLat

	sinSquareLon := math.Sin((lon1 - lon2) / 2.0)
	sinSquareLon *= sinSquareLon

	cosLat := math.Cos(lat1) * math.Cos(lat2)

	return Kilometers(EquatorialRadiusKm * 2.0 * math.Asin(math.Sqrt(sinSquareLat+cosLat*sinSquareLon)))
}

// VincentyDistance computes the geodesic distance on the WGS84 ellipsoid using
// Vincenty's inverse formula. Coincident points return 0. NoConvergence is returned
// when lambda fails to settle within 100 iterations (nearly antipodal points).
func VincentyDistance(p1, p2 Point) Kilometers {
	return VincentyCoords(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
}

// VincentyCoords is the coordinate form of VincentyDistance
func VincentyCoords(lat1, lon1, lat2, lon2 float64) Kilometers {
	lat1 = ToRadians(lat1)
	lon1 = ToRadians(lon1)
	lat2 = ToRadians(lat2)
	lon2 = ToRadians(lon2)

	a := EquatorialRadiusKm
	f := Flattening
	b := (1.0 - f) * a
	L := lon2 - lon1

	// Reduced latitudes
	tanU1 := (1.0 - f) * math.Tan(lat1)
	cosU1 := 1.0 / math.Sqrt(1.0+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	tanU2 := (1.0 - f) * math.Tan(lat2)
	cosU2 := 1.0 / math.Sqrt(1.0+tanU2*tanU2)
	sinU2 := tanU2 * cosU2

	var (
		sinSigma, cosSigma, sigma float64
		cosSqAlpha, cos2SigmaM    float64
	)

	lambda := L
	converged := false
	for i := 0; i < vincentyMaxIterations; i++ {
		sinLambda := math.Sin(lambda)
		cosLambda := math.Cos(lambda)

		cross := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt((cosU2*sinLambda)*(cosU2*sinLambda) + cross*cross)
		if sinSigma == 0 {
			return 0 // coincident points
		}

		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1.0 - sinAlpha*sinAlpha
		cos2SigmaM = cosSigma - 2.0*sinU1*sinU2/cosSqAlpha
		if math.IsNaN(cos2SigmaM) {
			cos2SigmaM = 0 // equatorial line, cosSqAlpha == 0
		}

		C := f / 16.0 * cosSqAlpha * (4.0 + f*(4.0-3.0*cosSqAlpha))
		previous := lambda
		lambda = L + (1.0-C)*f*sinAlpha*(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1.0+2.0*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-previous) <= vincentyTolerance {
			converged = true
			break
		}
	}

	if !converged {
		return NoConvergence
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1.0 + uSq/16384.0*(4096.0+uSq*(-768.0+uSq*(320.0-175.0*uSq)))
	B := uSq / 1024.0 * (256.0 + uSq*(-128.0+uSq*(74.0-47.0*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4.0*(cosSigma*(-1.0+2.0*cos2SigmaM*cos2SigmaM)-
		B/6.0*cos2SigmaM*(-3.0+4.0*sinSigma*sinSigma)*(-3.0+4.0*cos2SigmaM*cos2SigmaM)))

	return Kilometers(b * A * (sigma - deltaSigma))
}

// Distance dispatches to the selected algorithm. The Vincenty sentinel is turned
// into ErrNoConvergence so callers never accumulate it.
func Distance(alg Algorithm, p1, p2 Point) (Kilometers, error) {
	fn, err := alg.Func()
	if err != nil {
		return 0, err
	}

	d := fn(p1, p2)
	if d.Failed() {
		return 0, fmt.Errorf("%w: %s to %s", ErrNoConvergence, p1, p2)
	}
	return d, nil
}
