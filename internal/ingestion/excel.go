package ingestion

import (
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"flightpulse/internal/errors"
	"flightpulse/pkg/contracts/domain"
)

// ReadExcel reads a flight-operations batch from an .xlsx workbook. The
// first sheet whose first non-empty row carries the required columns is
// used; field coercion matches the CSV reader.
func ReadExcel(path string, logger *slog.Logger) ([]domain.FlightRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewIngestionError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	rows, sheet, headerIdx := findFlightSheet(f)
	if rows == nil {
		return nil, errors.NewIngestionError("no sheet with flight data found", nil).
			WithContext("path", path)
	}

	columns, err := mapColumns(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	var records []domain.FlightRecord
	for _, row := range rows[headerIdx+1:] {
		if emptyRow(row) {
			continue
		}
		records = append(records, recordFromRow(func(col string) string {
			idx := columns[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}))
	}

	logger.Info("ingested Excel batch",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("row_count", len(records)))

	return records, nil
}

// findFlightSheet scans the workbook for a sheet whose leading rows
// contain the flight header, returning its rows and the header row index.
func findFlightSheet(f *excelize.File) ([][]string, string, int) {
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for i, row := range rows {
			if i > 3 {
				break // header must be near the top
			}
			rowText := strings.ToLower(strings.Join(row, " "))
			if strings.Contains(rowText, "flight_id") && strings.Contains(rowText, "fare_usd") {
				return rows, name, i
			}
		}
	}
	return nil, "", -1
}

// emptyRow reports whether every cell of the row is blank.
func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
