package domain

import "math"

// Gym is a fitness centre found near a location
type Gym struct {
	ID   int64
	Lat  float64
	Lon  float64
	Name string
}

// Location is a latitude/longitude pair in degrees
type Location struct {
	Lat float64
	Lon float64
}

const earthRadiusM = 6371000.0

// DistanceTo returns the great-circle distance in meters
func (l Location) DistanceTo(lat, lon float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat - l.Lat)
	dLon := toRad(lon - l.Lon)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(l.Lat))*math.Cos(toRad(lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}
