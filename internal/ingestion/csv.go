// Package ingestion reads flight-operation batches from tabular sources
// (CSV or Excel) into typed records. Ingestion verifies source structure —
// all required columns must be present — but coerces field values
// leniently: unparseable timestamps become zero values and unparseable
// fares become NaN, so that rejecting bad records stays the cleansing
// stage's decision, with its own accounting.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"flightpulse/internal/errors"
	"flightpulse/pkg/contracts/domain"
)

// requiredColumns are the source columns that must be present for a batch
// to be ingested at all. delay_minutes must exist in the source but its
// values are never read: delay is recomputed from timestamps downstream.
var requiredColumns = []string{
	"flight_id", "aircraft_id", "origin", "destination",
	"scheduled_departure", "actual_departure",
	"scheduled_arrival", "actual_arrival",
	"status", "delay_minutes", "fare_usd",
}

// timestampLayouts are accepted in the order listed.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadFile ingests a batch from path, dispatching on the file extension.
func ReadFile(path string, logger *slog.Logger) ([]domain.FlightRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path, logger)
	case ".xlsx":
		return ReadExcel(path, logger)
	default:
		return nil, errors.NewIngestionError(
			fmt.Sprintf("unsupported input format %q", filepath.Ext(path)), nil)
	}
}

// ReadCSV reads a flight-operations CSV file into typed records.
func ReadCSV(path string, logger *slog.Logger) ([]domain.FlightRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIngestionError("failed to open input file", err).
			WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are coerced, not rejected

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewIngestionError("input file is empty", nil).
			WithContext("path", path)
	}
	if err != nil {
		return nil, errors.NewIngestionError("failed to read header row", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.FlightRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewIngestionError("failed to read data row", err).
				WithContext("line", line+1)
		}
		line++

		records = append(records, recordFromRow(func(col string) string {
			idx := columns[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}))
	}

	logger.Info("ingested CSV batch",
		slog.String("path", path),
		slog.Int("row_count", len(records)))

	return records, nil
}

// mapColumns maps required column names to their header positions and
// fails with a distinguishable error naming every absent column.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewIngestionError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	return columns, nil
}

// recordFromRow builds one FlightRecord from a cell accessor, applying the
// lenient coercion rules shared by the CSV and Excel readers.
func recordFromRow(get func(col string) string) domain.FlightRecord {
	return domain.FlightRecord{
		FlightID:           get("flight_id"),
		AircraftID:         get("aircraft_id"),
		Origin:             get("origin"),
		Destination:        get("destination"),
		ScheduledDeparture: parseTimestamp(get("scheduled_departure")),
		ActualDeparture:    parseOptionalTimestamp(get("actual_departure")),
		ScheduledArrival:   parseTimestamp(get("scheduled_arrival")),
		ActualArrival:      parseOptionalTimestamp(get("actual_arrival")),
		Status:             domain.FlightStatus(get("status")),
		FareUSD:            parseFare(get("fare_usd")),
	}
}

// parseTimestamp coerces a cell to a timestamp, returning the zero value
// when the cell is empty or unparseable.
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseOptionalTimestamp coerces a cell to a nullable timestamp.
func parseOptionalTimestamp(value string) *time.Time {
	t := parseTimestamp(value)
	if t.IsZero() {
		return nil
	}
	return &t
}

// parseFare coerces a cell to a fare amount, returning NaN when the cell
// is empty or unparseable.
func parseFare(value string) float64 {
	if value == "" {
		return math.NaN()
	}
	fare, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return fare
}
