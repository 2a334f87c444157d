package domain

// A single (month label, volume) observation.
type MonthlyVolume struct {
	Month  string  `json:"month" validate:"required"`
	Volume float64 `json:"volume" validate:"gte=0"`
}

// Per-product time series of volumes (stock, consumption or production).
type ProductSeries struct {
	Product     string          `json:"product" validate:"required"`
	MonthlyData []MonthlyVolume `json:"monthlyData" validate:"dive"`
}

// VolumeFor returns the volume recorded for month.
// When a month was entered more than once the first entry counts.
func (s ProductSeries) VolumeFor(month string) (float64, bool) {
	for _, m := range s.MonthlyData {
		if m.Month == month {
			return m.Volume, true
		}
	}
	return 0, false
}

// ProductVolume is one product line shown in a map info panel or a snapshot payload.
type ProductVolume struct {
	Product string  `json:"product"`
	Volume  float64 `json:"volume"`
}

// LatestMonth returns the latest known month label across all series, or "" if none.
// Labels outside the fixed calendar are ignored.
func LatestMonth(series []ProductSeries) string {
	latest := -1
	for _, s := range series {
		for _, m := range s.MonthlyData {
			if idx := MonthIndex(m.Month); idx > latest {
				latest = idx
			}
		}
	}
	if latest < 0 {
		return ""
	}
	return Months[latest]
}

// VolumesFor returns per-product volumes for a month, in series order.
// Products without an entry for month are omitted, not zero-filled.
func VolumesFor(series []ProductSeries, month string) []ProductVolume {
	out := make([]ProductVolume, 0, len(series))
	for _, s := range series {
		if v, ok := s.VolumeFor(month); ok {
			out = append(out, ProductVolume{Product: s.Product, Volume: v})
		}
	}
	return out
}

// VolumeMap is VolumesFor keyed by product name. When a product has more than
// one series, the last one wins.
func VolumeMap(series []ProductSeries, month string) map[string]float64 {
	out := make(map[string]float64)
	for _, pv := range VolumesFor(series, month) {
		out[pv.Product] = pv.Volume
	}
	return out
}

// LatestTotal sums the latest month's volumes. It is always derived from the series.
func LatestTotal(series []ProductSeries) float64 {
	month := LatestMonth(series)
	if month == "" {
		return 0
	}
	var total float64
	for _, pv := range VolumesFor(series, month) {
		total += pv.Volume
	}
	return total
}

// LatestVolumes returns the per-product volumes for the latest known month.
func LatestVolumes(series []ProductSeries) []ProductVolume {
	month := LatestMonth(series)
	if month == "" {
		return []ProductVolume{}
	}
	return VolumesFor(series, month)
}
