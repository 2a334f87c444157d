package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Records written by older dashboard revisions are coerced into the current
// shape on decode. Unknown or malformed optional fields fall back to defaults
// instead of failing the whole collection.

// UnmarshalJSON accepts both per-product series and the legacy flat
// products[{month, product, volume}] layout.
func (w *Warehouse) UnmarshalJSON(data []byte) error {
	type plain Warehouse
	var raw struct {
		plain
		Lat      json.RawMessage   `json:"lat"`
		Lng      json.RawMessage   `json:"lng"`
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode warehouse: %w", err)
	}

	products, err := decodeSeries(raw.Products)
	if err != nil {
		return fmt.Errorf("decode warehouse %d products: %w", raw.ID, err)
	}

	*w = Warehouse(raw.plain)
	w.Lat = flexFloat(raw.Lat)
	w.Lng = flexFloat(raw.Lng)
	w.Products = products
	return nil
}

// UnmarshalJSON migrates single consumedProduct/consumedVolume and
// producedProduct/producedVolume fields into one-element series.
func (e *Enterprise) UnmarshalJSON(data []byte) error {
	type plain Enterprise
	var raw struct {
		plain
		Lat             json.RawMessage   `json:"lat"`
		Lng             json.RawMessage   `json:"lng"`
		Consumed        []json.RawMessage `json:"consumed"`
		Produced        []json.RawMessage `json:"produced"`
		ConsumedProduct string            `json:"consumedProduct"`
		ConsumedVolume  json.RawMessage   `json:"consumedVolume"`
		ProducedProduct string            `json:"producedProduct"`
		ProducedVolume  json.RawMessage   `json:"producedVolume"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode enterprise: %w", err)
	}

	consumed, err := decodeSeries(raw.Consumed)
	if err != nil {
		return fmt.Errorf("decode enterprise %d consumed: %w", raw.ID, err)
	}
	produced, err := decodeSeries(raw.Produced)
	if err != nil {
		return fmt.Errorf("decode enterprise %d produced: %w", raw.ID, err)
	}

	if len(consumed) == 0 && strings.TrimSpace(raw.ConsumedProduct) != "" {
		consumed = []ProductSeries{legacySeries(raw.ConsumedProduct, raw.ConsumedVolume)}
	}
	if len(produced) == 0 && strings.TrimSpace(raw.ProducedProduct) != "" {
		produced = []ProductSeries{legacySeries(raw.ProducedProduct, raw.ProducedVolume)}
	}

	*e = Enterprise(raw.plain)
	e.Lat = flexFloat(raw.Lat)
	e.Lng = flexFloat(raw.Lng)
	e.Consumed = consumed
	e.Produced = produced
	for i := range e.Storage {
		if e.Storage[i].Type != StorageFinished {
			e.Storage[i].Type = StorageRaw
		}
		if e.Storage[i].MonthlyData == nil {
			e.Storage[i].MonthlyData = []MonthlyVolume{}
		}
	}
	return nil
}

// UnmarshalJSON accepts productTypes as a list or as the comma-separated form
// input, and a numeric or string volume.
func (v *Vehicle) UnmarshalJSON(data []byte) error {
	type plain Vehicle
	var raw struct {
		plain
		Volume       json.RawMessage `json:"volume"`
		ProductTypes json.RawMessage `json:"productTypes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode vehicle: %w", err)
	}

	*v = Vehicle(raw.plain)
	if f := flexFloat(raw.Volume); f != nil {
		v.Volume = *f
	}
	v.ProductTypes = flexStrings(raw.ProductTypes)
	if v.Status != VehicleMaintenance {
		v.Status = VehicleActive
	}
	return nil
}

// UnmarshalJSON accepts a numeric or string volume; anything else reads as 0.
func (m *MonthlyVolume) UnmarshalJSON(data []byte) error {
	var raw struct {
		Month  string          `json:"month"`
		Volume json.RawMessage `json:"volume"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode monthly volume: %w", err)
	}

	m.Month = raw.Month
	m.Volume = 0
	if f := flexFloat(raw.Volume); f != nil {
		m.Volume = *f
	}
	return nil
}

func decodeSeries(items []json.RawMessage) ([]ProductSeries, error) {
	out := make([]ProductSeries, 0, len(items))
	index := make(map[string]int)

	for i, item := range items {
		var entry struct {
			Product     string          `json:"product"`
			MonthlyData []MonthlyVolume `json:"monthlyData"`
			Month       string          `json:"month"`
			Volume      json.RawMessage `json:"volume"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("entry #%d: %w", i+1, err)
		}

		flat := entry.MonthlyData == nil && (entry.Month != "" || len(entry.Volume) > 0)
		if !flat {
			if entry.MonthlyData == nil {
				entry.MonthlyData = []MonthlyVolume{}
			}
			out = append(out, ProductSeries{Product: entry.Product, MonthlyData: entry.MonthlyData})
			continue
		}

		month := entry.Month
		if month == "" {
			month = Months[0]
		}
		var volume float64
		if f := flexFloat(entry.Volume); f != nil {
			volume = *f
		}

		pos, ok := index[entry.Product]
		if !ok {
			pos = len(out)
			index[entry.Product] = pos
			out = append(out, ProductSeries{Product: entry.Product, MonthlyData: []MonthlyVolume{}})
		}
		out[pos].MonthlyData = append(out[pos].MonthlyData, MonthlyVolume{Month: month, Volume: volume})
	}

	return out, nil
}

func legacySeries(product string, volume json.RawMessage) ProductSeries {
	s := ProductSeries{Product: strings.TrimSpace(product), MonthlyData: []MonthlyVolume{}}
	if f := flexFloat(volume); f != nil {
		s.MonthlyData = append(s.MonthlyData, MonthlyVolume{Month: Months[0], Volume: *f})
	}
	return s
}

// flexFloat decodes a number, a numeric string, null or "" (nil).
func flexFloat(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func flexStrings(raw json.RawMessage) []string {
	out := []string{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return out
	}
	return SplitList(joined)
}

// SplitList splits a comma-separated form value into trimmed, non-empty items.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
