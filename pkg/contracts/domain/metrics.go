package domain

import "context"

// RouteCount is one entry of the top-routes ranking.
type RouteCount struct {
	Route string `json:"route"`
	Count int    `json:"count"`
}

// AircraftRevenue is one entry of the revenue ranking.
type AircraftRevenue struct {
	Aircraft string  `json:"aircraft"`
	Revenue  float64 `json:"revenue"`
}

// MetricsReport holds the seven operational KPIs derived from a curated
// record set. Field names are fixed by the export contract; consumers of
// the exported document rely on them verbatim.
//
// MedianDurationMinutes is nil when the curated set contains no completed
// flights, which serializes as JSON null. AverageDelayMinutes is zero in
// that case. Rate, delay, duration and revenue values are rounded to two
// decimals.
type MetricsReport struct {
	TotalFlights          int               `json:"total_flights"`
	CompletedFlights      int               `json:"completed_flights"`
	CancellationRate      float64           `json:"cancellation_rate"`
	AverageDelayMinutes   float64           `json:"average_delay_minutes"`
	MedianDurationMinutes *float64          `json:"median_duration_minutes"`
	TopRoutes             []RouteCount      `json:"top_routes"`
	AircraftUtilization   map[string]int    `json:"aircraft_utilization"`
	TopAircraftByRevenue  []AircraftRevenue `json:"top_aircraft_by_revenue"`
}

// FlightStore persists a curated record set. Implementations must be
// idempotent: re-submitting an identical curated sequence leaves the
// stored logical state unchanged (insert-if-absent keyed on flight_id).
type FlightStore interface {
	SaveFlights(ctx context.Context, records []FlightRecord) (int64, error)
}

// MetricsExporter serializes a metrics report to a durable document.
// Implementations must be atomic: a failed export leaves no partial output.
type MetricsExporter interface {
	ExportMetrics(ctx context.Context, report MetricsReport) error
}
