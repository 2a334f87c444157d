package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/store"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoHeaderRow = errors.New("no header row with a brand column")

// Header aliases for vehicle sheets, lowercased.
var vehicleColumns = map[string][]string{
	"brand":        {"марка", "brand"},
	"licensePlate": {"госномер", "гос. номер", "номер", "license plate", "plate"},
	"trailerType":  {"тип прицепа", "прицеп", "trailer type", "trailer"},
	"volume":       {"объем", "объём", "объем (м³)", "объём (м³)", "volume"},
	"productTypes": {"виды продукции", "продукция", "product types", "products"},
	"enterprise":   {"предприятие", "enterprise"},
	"schedule":     {"график работы", "график", "schedule"},
	"status":       {"статус", "status"},
}

// RowError reports one rejected spreadsheet row (1-based, as shown in Excel).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created []domain.Vehicle `json:"created"`
	Errors  []RowError       `json:"errors"`
}

// ImportVehicles reads the first sheet of an .xlsx workbook and creates one
// vehicle per valid row. Invalid rows are reported and skipped.
func ImportVehicles(ctx context.Context, r io.Reader, vehicles *store.Collection[domain.Vehicle]) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import vehicles: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, fmt.Errorf("import vehicles: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, fmt.Errorf("import vehicles: read rows: %w", err)
	}

	headerAt, cols := findHeader(rows)
	if headerAt < 0 {
		return ImportResult{}, fmt.Errorf("import vehicles: %w", ErrNoHeaderRow)
	}

	result := ImportResult{Created: []domain.Vehicle{}, Errors: []RowError{}}
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}

		v, err := vehicleFromRow(row, cols)
		if err == nil {
			v, err = vehicles.Create(ctx, v)
		}
		if err != nil {
			var verr *store.ValidationError
			if !errors.As(err, &verr) && !errors.Is(err, errBadCell) {
				return result, fmt.Errorf("import vehicles: row %d: %w", i+1, err)
			}
			result.Errors = append(result.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		result.Created = append(result.Created, v)
	}

	return result, nil
}

var errBadCell = errors.New("bad cell")

func findHeader(rows [][]string) (int, map[string]int) {
	for i, row := range rows {
		cols := map[string]int{}
		for j, cell := range row {
			label := strings.ToLower(strings.TrimSpace(cell))
			for field, aliases := range vehicleColumns {
				for _, a := range aliases {
					if label == a {
						cols[field] = j
					}
				}
			}
		}
		if _, ok := cols["brand"]; ok {
			return i, cols
		}
	}
	return -1, nil
}

func vehicleFromRow(row []string, cols map[string]int) (domain.Vehicle, error) {
	cell := func(field string) string {
		j, ok := cols[field]
		if !ok || j >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[j])
	}

	v := domain.Vehicle{
		Brand:        cell("brand"),
		LicensePlate: cell("licensePlate"),
		TrailerType:  cell("trailerType"),
		ProductTypes: domain.SplitList(cell("productTypes")),
		Enterprise:   cell("enterprise"),
		Schedule:     cell("schedule"),
		Status:       parseStatus(cell("status")),
	}

	if raw := cell("volume"); raw != "" {
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return domain.Vehicle{}, fmt.Errorf("volume %q is not a number: %w", raw, errBadCell)
		}
		v.Volume = f
	}

	return v, nil
}

func parseStatus(s string) string {
	switch strings.ToLower(s) {
	case "maintenance", "обслуживание", "в обслуживании", "ремонт":
		return domain.VehicleMaintenance
	}
	return domain.VehicleActive
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var routeHeaders = []string{"Откуда", "Куда", "Продукт", "Объём", "Расстояние, км", "Транспорт", "Обоснование"}

// ExportRoutes writes the routes as a single-sheet workbook. The caller owns
// the returned file and must close it.
func ExportRoutes(routes []domain.Route) (_ *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	const sheet = "Маршруты"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export routes: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export routes: header style: %w", err)
	}

	header := make([]any, len(routeHeaders))
	for i, h := range routeHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export routes: header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(routeHeaders), 1)
	if err != nil {
		return nil, fmt.Errorf("export routes: header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("export routes: header style: %w", err)
	}

	for i, r := range routes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("export routes: row %d: %w", i+1, err)
		}
		row := []any{r.From, r.To, r.Product, r.Volume, r.Distance, r.Vehicle, r.Reason}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export routes: row %d: %w", i+1, err)
		}
	}

	return f, nil
}
