package dataprocessing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightpulse/pkg/contracts/domain"
)

func ts(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(value string) *time.Time {
	t := ts(value)
	return &t
}

// validFlight returns a completed flight that passes every cleansing rule.
func validFlight(id string) domain.FlightRecord {
	return domain.FlightRecord{
		FlightID:           id,
		AircraftID:         "A320",
		Origin:             "DEL",
		Destination:        "BOM",
		ScheduledDeparture: ts("2025-11-01 08:00:00"),
		ActualDeparture:    tsp("2025-11-01 08:10:00"),
		ScheduledArrival:   ts("2025-11-01 10:00:00"),
		ActualArrival:      tsp("2025-11-01 10:05:00"),
		Status:             domain.StatusCompleted,
		FareUSD:            120.50,
	}
}

func TestCleanse_EmptyInput(t *testing.T) {
	cleanser := NewCleanser(nil)

	curated, report := cleanser.Cleanse(context.Background(), nil)

	assert.Empty(t, curated)
	assert.Equal(t, domain.CleansingReport{}, report)
}

func TestCleanse_DeduplicatesKeepFirst(t *testing.T) {
	first := validFlight("FL001")
	first.Origin = "DEL"
	second := validFlight("FL001")
	second.Origin = "BLR"

	cleanser := NewCleanser(nil)
	curated, report := cleanser.Cleanse(context.Background(), []domain.FlightRecord{first, second, validFlight("FL002")})

	require.Len(t, curated, 2)
	assert.Equal(t, "DEL", curated[0].Origin)
	assert.Equal(t, "FL002", curated[1].FlightID)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 0, report.InvalidRemoved)
}

func TestCleanse_DedupRunsBeforeValidation(t *testing.T) {
	// The first occurrence is invalid (negative fare); its duplicate is
	// valid. The strict dedup-then-validate order keeps neither: the
	// duplicate is dropped first, then the invalid first occurrence.
	invalid := validFlight("FL001")
	invalid.FareUSD = -10
	duplicate := validFlight("FL001")

	cleanser := NewCleanser(nil)
	curated, report := cleanser.Cleanse(context.Background(), []domain.FlightRecord{invalid, duplicate})

	assert.Empty(t, curated)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.InvalidRemoved)
}

func TestCleanse_ValidationRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.FlightRecord)
	}{
		{
			name:   "negative fare",
			mutate: func(r *domain.FlightRecord) { r.FareUSD = -1 },
		},
		{
			name: "scheduled departure after arrival",
			mutate: func(r *domain.FlightRecord) {
				r.ScheduledDeparture = ts("2025-11-01 12:00:00")
				r.ScheduledArrival = ts("2025-11-01 10:00:00")
			},
		},
		{
			name:   "missing flight_id",
			mutate: func(r *domain.FlightRecord) { r.FlightID = "  " },
		},
		{
			name:   "missing aircraft_id",
			mutate: func(r *domain.FlightRecord) { r.AircraftID = "" },
		},
		{
			name:   "missing origin",
			mutate: func(r *domain.FlightRecord) { r.Origin = "" },
		},
		{
			name:   "missing destination",
			mutate: func(r *domain.FlightRecord) { r.Destination = "" },
		},
		{
			name:   "missing status",
			mutate: func(r *domain.FlightRecord) { r.Status = "" },
		},
		{
			name:   "unparseable scheduled departure",
			mutate: func(r *domain.FlightRecord) { r.ScheduledDeparture = time.Time{} },
		},
		{
			name:   "unparseable scheduled arrival",
			mutate: func(r *domain.FlightRecord) { r.ScheduledArrival = time.Time{} },
		},
		{
			name:   "missing fare",
			mutate: func(r *domain.FlightRecord) { r.FareUSD = math.NaN() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validFlight("FL001")
			tt.mutate(&record)

			cleanser := NewCleanser(nil)
			curated, report := cleanser.Cleanse(context.Background(), []domain.FlightRecord{record})

			assert.Empty(t, curated)
			assert.Equal(t, 1, report.InvalidRemoved)
		})
	}
}

func TestCleanse_MultipleRuleFailuresCountedOnce(t *testing.T) {
	record := validFlight("FL001")
	record.FareUSD = -50
	record.ScheduledDeparture = ts("2025-11-01 12:00:00")
	record.ScheduledArrival = ts("2025-11-01 10:00:00")
	record.AircraftID = ""

	cleanser := NewCleanser(nil)
	curated, report := cleanser.Cleanse(context.Background(), []domain.FlightRecord{record})

	assert.Empty(t, curated)
	assert.Equal(t, 1, report.InvalidRemoved)
}

func TestCleanse_ActualTimestampsNeverInspected(t *testing.T) {
	cancelled := validFlight("FL001")
	cancelled.Status = domain.StatusCancelled
	cancelled.ActualDeparture = nil
	cancelled.ActualArrival = nil
	cancelled.FareUSD = 0

	partiallyCancelled := validFlight("FL002")
	partiallyCancelled.Status = domain.StatusCancelled
	partiallyCancelled.ActualArrival = nil
	partiallyCancelled.FareUSD = 0

	cleanser := NewCleanser(nil)
	curated, report := cleanser.Cleanse(context.Background(), []domain.FlightRecord{cancelled, partiallyCancelled})

	assert.Len(t, curated, 2)
	assert.Equal(t, 0, report.InvalidRemoved)
}

func TestCleanse_DerivesFlightDate(t *testing.T) {
	// Late-night departure arriving after midnight: the flight date is the
	// departure's calendar day.
	record := validFlight("FL001")
	record.ScheduledDeparture = ts("2025-11-03 23:45:00")
	record.ScheduledArrival = ts("2025-11-04 01:30:00")

	cleanser := NewCleanser(nil)
	curated, report := cleanser.Cleanse(context.Background(), []domain.FlightRecord{record})

	require.Len(t, curated, 1)
	assert.Equal(t, 0, report.InvalidRemoved)
	assert.Equal(t, ts("2025-11-03 00:00:00"), curated[0].FlightDate)
}

func TestCleanse_Idempotent(t *testing.T) {
	input := []domain.FlightRecord{
		validFlight("FL001"),
		validFlight("FL001"), // duplicate
		validFlight("FL002"),
	}
	negFare := validFlight("FL003")
	negFare.FareUSD = -5
	input = append(input, negFare)

	cleanser := NewCleanser(nil)
	curated, _ := cleanser.Cleanse(context.Background(), input)
	again, report := cleanser.Cleanse(context.Background(), curated)

	assert.Equal(t, curated, again)
	assert.Equal(t, domain.CleansingReport{}, report)
}
