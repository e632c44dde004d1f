package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"flightpulse/pkg/contracts/domain"
)

// Cleanser removes duplicate and invalid records from a raw batch. It is
// stateless: calling Cleanse twice on the same input yields identical
// output, and the curated set is a fixed point of Cleanse.
type Cleanser struct {
	logger *slog.Logger
}

// NewCleanser creates a new batch cleanser
func NewCleanser(logger *slog.Logger) *Cleanser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleanser{logger: logger}
}

// Cleanse deduplicates then validates a raw batch and derives the flight
// date for every surviving record.
//
// The order is load-bearing: deduplication runs before validation so that
// an invalid first occurrence still shadows its later duplicates. Swapping
// the phases would change which records survive.
func (c *Cleanser) Cleanse(ctx context.Context, raw []domain.FlightRecord) ([]domain.FlightRecord, domain.CleansingReport) {
	report := domain.CleansingReport{}

	deduped := c.deduplicate(ctx, raw, &report)
	curated := c.validate(ctx, deduped, &report)

	for i := range curated {
		curated[i].FlightDate = dateOf(curated[i].ScheduledDeparture)
	}

	c.logger.InfoContext(ctx, "cleansing complete",
		slog.Int("raw_count", len(raw)),
		slog.Int("curated_count", len(curated)),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Int("invalid_removed", report.InvalidRemoved))

	return curated, report
}

// deduplicate keeps the first record seen for each flight_id, scanning in
// input order. Every subsequent record with the same id is dropped.
func (c *Cleanser) deduplicate(ctx context.Context, records []domain.FlightRecord, report *domain.CleansingReport) []domain.FlightRecord {
	seen := make(map[string]bool, len(records))
	deduped := make([]domain.FlightRecord, 0, len(records))

	for _, record := range records {
		if seen[record.FlightID] {
			report.DuplicatesRemoved++
			c.logger.DebugContext(ctx, "duplicate flight_id dropped",
				slog.String("flight_id", record.FlightID))
			continue
		}
		seen[record.FlightID] = true
		deduped = append(deduped, record)
	}

	return deduped
}

// validate drops records that fail any cleansing rule. A record failing
// several rules is counted once. Actual departure/arrival are never
// inspected; they are legitimately absent for cancellations.
func (c *Cleanser) validate(ctx context.Context, records []domain.FlightRecord, report *domain.CleansingReport) []domain.FlightRecord {
	curated := make([]domain.FlightRecord, 0, len(records))

	for _, record := range records {
		if reason := rejectionReason(record); reason != "" {
			report.InvalidRemoved++
			c.logger.DebugContext(ctx, "invalid record dropped",
				slog.String("flight_id", record.FlightID),
				slog.String("reason", reason))
			continue
		}
		curated = append(curated, record)
	}

	return curated
}

// rejectionReason returns "" for a valid record, or the first rule the
// record violates.
func rejectionReason(r domain.FlightRecord) string {
	switch {
	case missingCriticalField(r):
		return "missing critical field"
	case r.FareUSD < 0:
		return "negative fare"
	case r.ScheduledDeparture.After(r.ScheduledArrival):
		return "scheduled departure after scheduled arrival"
	default:
		return ""
	}
}

// missingCriticalField reports whether any critical field is missing or
// was unparseable at ingestion. The critical fields are flight_id,
// aircraft_id, origin, destination, both scheduled timestamps, status and
// fare_usd.
func missingCriticalField(r domain.FlightRecord) bool {
	if strings.TrimSpace(r.FlightID) == "" ||
		strings.TrimSpace(r.AircraftID) == "" ||
		strings.TrimSpace(r.Origin) == "" ||
		strings.TrimSpace(r.Destination) == "" ||
		strings.TrimSpace(string(r.Status)) == "" {
		return true
	}
	if r.ScheduledDeparture.IsZero() || r.ScheduledArrival.IsZero() {
		return true
	}
	return !r.HasFare()
}

// dateOf truncates a timestamp to its calendar date component.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
