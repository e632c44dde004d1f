package ingestion

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "flightpulse/internal/errors"
	"flightpulse/pkg/contracts/domain"
)

const csvHeader = "flight_id,aircraft_id,origin,destination,scheduled_departure,actual_departure,scheduled_arrival,actual_arrival,status,delay_minutes,fare_usd"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCSV_HappyPath(t *testing.T) {
	path := writeCSV(t, csvHeader+"\n"+
		"FL001,A320,DEL,BOM,2025-11-01 08:00:00,2025-11-01 08:10:00,2025-11-01 10:00:00,2025-11-01 10:05:00,completed,10,120.50\n"+
		"FL002,B737,BLR,MAA,2025-11-01 09:00:00,,2025-11-01 10:30:00,,cancelled,0,0\n")

	records, err := ReadCSV(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "FL001", first.FlightID)
	assert.Equal(t, "A320", first.AircraftID)
	assert.Equal(t, "DEL", first.Origin)
	assert.Equal(t, "BOM", first.Destination)
	assert.Equal(t, domain.StatusCompleted, first.Status)
	assert.Equal(t, 120.50, first.FareUSD)
	require.NotNil(t, first.ActualDeparture)
	assert.Equal(t, time.Date(2025, 11, 1, 8, 10, 0, 0, time.UTC), *first.ActualDeparture)

	second := records[1]
	assert.Equal(t, domain.StatusCancelled, second.Status)
	assert.Nil(t, second.ActualDeparture)
	assert.Nil(t, second.ActualArrival)
	assert.Equal(t, 0.0, second.FareUSD)
}

func TestReadCSV_HeaderOrderIsFree(t *testing.T) {
	path := writeCSV(t, "fare_usd,flight_id,aircraft_id,origin,destination,scheduled_departure,actual_departure,scheduled_arrival,actual_arrival,status,delay_minutes\n"+
		"99.99,FL001,A320,DEL,BOM,2025-11-01 08:00:00,,2025-11-01 10:00:00,,cancelled,0\n")

	records, err := ReadCSV(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "FL001", records[0].FlightID)
	assert.Equal(t, 99.99, records[0].FareUSD)
}

func TestReadCSV_MissingColumns(t *testing.T) {
	path := writeCSV(t, "flight_id,aircraft_id,origin\nFL001,A320,DEL\n")

	_, err := ReadCSV(path, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIngestion))
	assert.Contains(t, err.Error(), "destination")
	assert.Contains(t, err.Error(), "delay_minutes")
}

func TestReadCSV_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")

	_, err := ReadCSV(path, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIngestion))
}

func TestReadCSV_FileNotFound(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIngestion))
}

func TestReadCSV_LenientCoercion(t *testing.T) {
	// Unparseable cells are coerced, never rejected; rejection belongs to
	// the cleansing stage.
	path := writeCSV(t, csvHeader+"\n"+
		"FL001,A320,DEL,BOM,not-a-timestamp,,2025-11-01 10:00:00,,completed,5,abc\n")

	records, err := ReadCSV(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.True(t, records[0].ScheduledDeparture.IsZero())
	assert.False(t, records[0].HasFare())
}

func TestReadCSV_RaggedRow(t *testing.T) {
	path := writeCSV(t, csvHeader+"\n"+"FL001,A320,DEL\n")

	records, err := ReadCSV(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "FL001", records[0].FlightID)
	assert.True(t, records[0].ScheduledDeparture.IsZero())
	assert.False(t, records[0].HasFare())
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{name: "space separated", value: "2025-11-01 08:00:00", want: time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)},
		{name: "rfc3339", value: "2025-11-01T08:00:00Z", want: time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)},
		{name: "t separated without zone", value: "2025-11-01T08:00:00", want: time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)},
		{name: "date only", value: "2025-11-01", want: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)},
		{name: "empty", value: "", want: time.Time{}},
		{name: "garbage", value: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTimestamp(tt.value))
		})
	}
}

func TestReadFile_Dispatch(t *testing.T) {
	path := writeCSV(t, csvHeader+"\n"+
		"FL001,A320,DEL,BOM,2025-11-01 08:00:00,,2025-11-01 10:00:00,,cancelled,0,0\n")

	records, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "flights.parquet"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIngestion))
}
