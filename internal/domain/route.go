package domain

// Represents a single computed delivery route.
// Routes are produced only by the external optimizer and replaced wholesale on
// every successful optimization; operators never author them.
type Route struct {
	From     string       `json:"from" validate:"required"`
	To       string       `json:"to" validate:"required"`
	FromLat  *float64     `json:"fromLat,omitempty" validate:"omitempty,latitude"`
	FromLng  *float64     `json:"fromLng,omitempty" validate:"omitempty,longitude"`
	ToLat    *float64     `json:"toLat,omitempty" validate:"omitempty,latitude"`
	ToLng    *float64     `json:"toLng,omitempty" validate:"omitempty,longitude"`
	Product  string       `json:"product" validate:"required"`
	Volume   float64      `json:"volume" validate:"gte=0"`
	Distance float64      `json:"distance" validate:"gte=0"`
	Vehicle  string       `json:"vehicle,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Path     [][2]float64 `json:"path,omitempty"`
}

// Endpoints returns both endpoint coordinates when both are present.
func (r Route) Endpoints() (from, to Coordinates, ok bool) {
	from, okFrom := CoordinatesFrom(r.FromLat, r.FromLng)
	to, okTo := CoordinatesFrom(r.ToLat, r.ToLng)
	return from, to, okFrom && okTo
}

// WithEndpoints returns a copy with endpoint coordinates set.
func (r Route) WithEndpoints(from, to Coordinates) Route {
	r.FromLat, r.FromLng = float64Ptr(from.Lat), float64Ptr(from.Lng)
	r.ToLat, r.ToLng = float64Ptr(to.Lat), float64Ptr(to.Lng)
	return r
}

func float64Ptr(v float64) *float64 { return &v }
