package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"flightpulse/pkg/contracts/domain"
)

const (
	topRoutesLimit   = 3
	topAircraftLimit = 2
)

// Engine computes the seven operational KPIs from a curated record set.
// Compute is a pure function: it never errors, returning documented
// zero/null/empty values for degenerate input, because "no data" is a
// valid operational state.
//
// Delay and duration are computed as fractional minutes from timestamp
// differences; aggregate values are rounded to two decimals. The
// delay_minutes column of the source is never consulted — the supplied
// field is untrusted, so delay is always recomputed from timestamps.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a new metrics engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Compute derives the full metrics report from a curated record set.
func (e *Engine) Compute(ctx context.Context, curated []domain.FlightRecord) domain.MetricsReport {
	var completed, cancelled []domain.FlightRecord
	for _, r := range curated {
		switch {
		case r.IsCompleted():
			completed = append(completed, r)
		case r.IsCancelled():
			cancelled = append(cancelled, r)
		}
	}

	report := domain.MetricsReport{
		TotalFlights:          len(curated),
		CompletedFlights:      len(completed),
		CancellationRate:      cancellationRate(len(cancelled), len(curated)),
		AverageDelayMinutes:   averageDelay(completed),
		MedianDurationMinutes: medianDuration(completed),
		TopRoutes:             topRoutes(curated),
		AircraftUtilization:   aircraftUtilization(curated),
		TopAircraftByRevenue:  topAircraftByRevenue(curated),
	}

	e.logger.InfoContext(ctx, "metrics computed",
		slog.Int("total_flights", report.TotalFlights),
		slog.Int("completed_flights", report.CompletedFlights),
		slog.Float64("cancellation_rate", report.CancellationRate))

	return report
}

// cancellationRate returns 100*cancelled/total, or 0 for an empty set.
func cancellationRate(cancelled, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(100 * float64(cancelled) / float64(total))
}

// averageDelay returns the mean departure delay in minutes over completed
// flights, or 0 when there are none. Delay is actual minus scheduled
// departure; early departures contribute negative minutes.
func averageDelay(completed []domain.FlightRecord) float64 {
	var sum float64
	var n int
	for _, r := range completed {
		if r.ActualDeparture == nil {
			continue
		}
		sum += r.ActualDeparture.Sub(r.ScheduledDeparture).Minutes()
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

// medianDuration returns the median airborne duration in minutes over
// completed flights, or nil when there are none. The standard median is
// used: the mean of the two middle values for an even count.
func medianDuration(completed []domain.FlightRecord) *float64 {
	durations := make([]float64, 0, len(completed))
	for _, r := range completed {
		if r.ActualDeparture == nil || r.ActualArrival == nil {
			continue
		}
		durations = append(durations, r.ActualArrival.Sub(*r.ActualDeparture).Minutes())
	}
	if len(durations) == 0 {
		return nil
	}

	sort.Float64s(durations)
	mid := len(durations) / 2
	var median float64
	if len(durations)%2 == 0 {
		median = (durations[mid-1] + durations[mid]) / 2
	} else {
		median = durations[mid]
	}
	median = round2(median)
	return &median
}

// topRoutes returns the three most flown origin-destination pairs,
// descending by count. Ties keep the order in which each route first
// appeared in the curated set.
func topRoutes(curated []domain.FlightRecord) []domain.RouteCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, r := range curated {
		route := r.Route()
		if _, ok := counts[route]; !ok {
			firstSeen[route] = i
		}
		counts[route]++
	}

	ranked := make([]domain.RouteCount, 0, len(counts))
	for route, count := range counts {
		ranked = append(ranked, domain.RouteCount{Route: route, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Route] < firstSeen[ranked[j].Route]
	})

	if len(ranked) > topRoutesLimit {
		ranked = ranked[:topRoutesLimit]
	}
	return ranked
}

// aircraftUtilization counts records per aircraft type. Every aircraft in
// the curated set is present, cancelled flights included; this is a full
// mapping, not a ranking.
func aircraftUtilization(curated []domain.FlightRecord) map[string]int {
	utilization := make(map[string]int)
	for _, r := range curated {
		utilization[r.AircraftID]++
	}
	return utilization
}

// topAircraftByRevenue returns the two aircraft types with the highest
// total fare, descending. Cancelled flights contribute zero fare but do
// not disqualify an aircraft. The tie-break policy matches topRoutes.
func topAircraftByRevenue(curated []domain.FlightRecord) []domain.AircraftRevenue {
	revenue := make(map[string]float64)
	firstSeen := make(map[string]int)

	for i, r := range curated {
		if _, ok := revenue[r.AircraftID]; !ok {
			firstSeen[r.AircraftID] = i
			revenue[r.AircraftID] = 0
		}
		if !r.IsCancelled() {
			revenue[r.AircraftID] += r.FareUSD
		}
	}

	ranked := make([]domain.AircraftRevenue, 0, len(revenue))
	for aircraft, total := range revenue {
		ranked = append(ranked, domain.AircraftRevenue{Aircraft: aircraft, Revenue: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return firstSeen[ranked[i].Aircraft] < firstSeen[ranked[j].Aircraft]
	})

	if len(ranked) > topAircraftLimit {
		ranked = ranked[:topAircraftLimit]
	}
	for i := range ranked {
		ranked[i].Revenue = round2(ranked[i].Revenue)
	}
	return ranked
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
