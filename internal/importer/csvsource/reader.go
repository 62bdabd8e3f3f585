// Package csvsource turns a car park CSV export into typed import rows.
package csvsource

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
)

type column int

const (
	colID column = iota
	colLat
	colLon
	colCapacity
	colAvailable
	colLotType
	colAddress
)

var aliases = map[string]column{
	"id":              colID,
	"car_park_no":     colID,
	"carpark_number":  colID,
	"lat":             colLat,
	"latitude":        colLat,
	"lon":             colLon,
	"lng":             colLon,
	"longitude":       colLon,
	"capacity":        colCapacity,
	"total_lots":      colCapacity,
	"available":       colAvailable,
	"available_count": colAvailable,
	"lots_available":  colAvailable,
	"lot_type":        colLotType,
	"address":         colAddress,
}

var required = []struct {
	col  column
	name string
}{
	{colID, "id"},
	{colLat, "latitude"},
	{colLon, "longitude"},
	{colCapacity, "capacity"},
	{colAvailable, "available_count"},
}

// ReadRows reads a header line and one row per record. Records that cannot
// be converted come back with ParseError set instead of failing the file; an
// unusable header fails with ErrInvalidRequest.
func ReadRows(r io.Reader) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
				"reasons": []string{"csv_empty"},
			})
		}
		return nil, errors.ErrInvalidRequest.Wrap(fmt.Errorf("read csv header: %w", err))
	}

	positions, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	for {
		record, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				rows = append(rows, domain.RawRow{Line: parseErr.StartLine, ParseError: parseErr.Err.Error()})
				continue
			}
			return nil, errors.ErrInvalidRequest.Wrap(fmt.Errorf("read csv: %w", err))
		}
		if isBlank(record) {
			continue
		}
		line, _ := cr.FieldPos(0)

		rows = append(rows, toRow(line, record, positions))
	}
	return rows, nil
}

func mapHeader(header []string) (map[column]int, error) {
	positions := make(map[column]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := aliases[key]; ok {
			if _, dup := positions[col]; !dup {
				positions[col] = i
			}
		}
	}

	var missing []string
	for _, req := range required {
		if _, ok := positions[req.col]; !ok {
			missing = append(missing, req.name+"_column_missing")
		}
	}
	if len(missing) > 0 {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"reasons": missing})
	}
	return positions, nil
}

func toRow(line int, record []string, positions map[column]int) domain.RawRow {
	get := func(c column) string {
		i, ok := positions[c]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := domain.RawRow{
		Line:    line,
		ID:      get(colID),
		LotType: domain.LotType(strings.ToUpper(get(colLotType))),
		Address: get(colAddress),
	}

	var problems []string
	parseFloat := func(name string, c column, dst *float64) {
		v, err := strconv.ParseFloat(get(c), 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %q is not a number", name, get(c)))
			return
		}
		*dst = v
	}
	parseInt := func(name string, c column, dst *int) {
		v, err := strconv.Atoi(get(c))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %q is not an integer", name, get(c)))
			return
		}
		*dst = v
	}

	parseFloat("latitude", colLat, &row.Latitude)
	parseFloat("longitude", colLon, &row.Longitude)
	parseInt("capacity", colCapacity, &row.Capacity)
	parseInt("available_count", colAvailable, &row.AvailableCount)

	if len(problems) > 0 {
		row.ParseError = strings.Join(problems, "; ")
	}
	return row
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
