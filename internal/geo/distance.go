package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Point is a coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite numbers.
// Range is not checked.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// Distance returns the haversine great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// Between is Distance for two points.
func Between(a, b Point) float64 {
	return Distance(a.Lat, a.Lng, b.Lat, b.Lng)
}
