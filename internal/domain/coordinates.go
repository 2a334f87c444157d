package domain

import "math"

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return coordinates as [lon, lat] for external API compatibility (GeoJSON order).
func (c Coordinates) LonLat() []float64 { return []float64{c.Lng, c.Lat} }

// Return coordinates as [lat, lng] for map polylines.
func (c Coordinates) LatLng() [2]float64 { return [2]float64{c.Lat, c.Lng} }

// Valid reports whether the pair is a usable point on the globe.
// (0, 0) is treated as unset, since the original forms stored empty inputs as zero.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return false
	}
	return c.Lat != 0 || c.Lng != 0
}

// CoordinatesFrom builds a pair from optional lat/lng fields.
func CoordinatesFrom(lat, lng *float64) (Coordinates, bool) {
	if lat == nil || lng == nil {
		return Coordinates{}, false
	}
	c := Coordinates{Lat: *lat, Lng: *lng}
	return c, c.Valid()
}
