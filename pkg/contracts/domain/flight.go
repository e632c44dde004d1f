package domain

import (
	"math"
	"time"
)

// FlightStatus represents the operational status of a flight. The source
// data is an open set; only Completed and Cancelled drive metric inclusion.
type FlightStatus string

const (
	StatusCompleted FlightStatus = "completed"
	StatusCancelled FlightStatus = "cancelled"
)

// FlightRecord is the canonical in-memory representation of one
// flight-operation event. Records are constructed once by ingestion and
// flow immutably through cleansing and metrics computation.
//
// Field absence conventions: a zero ScheduledDeparture/ScheduledArrival
// means the source value was missing or unparseable (the cleansing stage
// rejects such records); a nil ActualDeparture/ActualArrival means the
// flight never departed/arrived, which is legitimate for cancellations;
// a NaN FareUSD means the fare was missing or unparseable.
type FlightRecord struct {
	FlightID           string       `json:"flight_id" db:"flight_id"`
	AircraftID         string       `json:"aircraft_id" db:"aircraft_id"`
	Origin             string       `json:"origin" db:"origin"`
	Destination        string       `json:"destination" db:"destination"`
	ScheduledDeparture time.Time    `json:"scheduled_departure" db:"scheduled_departure"`
	ActualDeparture    *time.Time   `json:"actual_departure,omitempty" db:"actual_departure"`
	ScheduledArrival   time.Time    `json:"scheduled_arrival" db:"scheduled_arrival"`
	ActualArrival      *time.Time   `json:"actual_arrival,omitempty" db:"actual_arrival"`
	Status             FlightStatus `json:"status" db:"status"`
	FareUSD            float64      `json:"fare_usd" db:"fare_usd"`

	// FlightDate is derived from ScheduledDeparture's date component by the
	// cleansing stage; it is never supplied by the source.
	FlightDate time.Time `json:"flight_date" db:"flight_date"`
}

// Route returns the origin-destination pair in display form, e.g. "DEL→BOM".
func (r FlightRecord) Route() string {
	return r.Origin + "→" + r.Destination
}

// IsCompleted reports whether the flight finished normally.
func (r FlightRecord) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// IsCancelled reports whether the flight was cancelled.
func (r FlightRecord) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// HasFare reports whether the fare was present and parseable on input.
func (r FlightRecord) HasFare() bool {
	return !math.IsNaN(r.FareUSD)
}

// CleansingReport counts the records removed from a batch by the two
// cleansing phases. A record that fails several validation rules is
// counted once.
type CleansingReport struct {
	DuplicatesRemoved int `json:"duplicates_removed"`
	InvalidRemoved    int `json:"invalid_removed"`
}

// Removed returns the total number of records dropped by cleansing.
func (r CleansingReport) Removed() int {
	return r.DuplicatesRemoved + r.InvalidRemoved
}
