// Package storage implements the persistence sink: curated flight records
// are written to PostgreSQL with insert-if-absent semantics keyed on
// flight_id, so re-running the pipeline on the same input leaves the
// stored logical state unchanged.
package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"flightpulse/internal/config"
	"flightpulse/internal/errors"
	"flightpulse/pkg/contracts/domain"
)

const (
	connectAttempts = 10
	connectBackoff  = 500 * time.Millisecond
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flights (
	flight_id           TEXT PRIMARY KEY,
	aircraft_id         TEXT NOT NULL,
	origin              TEXT NOT NULL,
	destination         TEXT NOT NULL,
	scheduled_departure TIMESTAMP NOT NULL,
	actual_departure    TIMESTAMP,
	scheduled_arrival   TIMESTAMP NOT NULL,
	actual_arrival      TIMESTAMP,
	status              TEXT NOT NULL,
	delay_minutes       DOUBLE PRECISION,
	fare_usd            NUMERIC(10, 2) NOT NULL,
	flight_date         DATE NOT NULL
)`

// The supplied delay_minutes is untrusted and therefore stored as NULL;
// the column exists only for downstream schema compatibility.
const insertSQL = `
INSERT INTO flights (
	flight_id, aircraft_id, origin, destination,
	scheduled_departure, actual_departure,
	scheduled_arrival, actual_arrival,
	status, delay_minutes, fare_usd, flight_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10, $11)
ON CONFLICT (flight_id) DO NOTHING`

// FlightStore persists curated records to PostgreSQL. It implements
// domain.FlightStore.
type FlightStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewFlightStore wraps an existing database handle
func NewFlightStore(db *sqlx.DB, logger *slog.Logger) *FlightStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightStore{db: db, logger: logger}
}

// Connect opens a PostgreSQL connection with bounded retry, for slow
// database startup in containerized runs.
func Connect(cfg config.DatabaseConfig, logger *slog.Logger) (*FlightStore, error) {
	var db *sqlx.DB
	var err error

	for i := 0; i < connectAttempts; i++ {
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			return NewFlightStore(db, logger), nil
		}
		time.Sleep(connectBackoff)
	}
	return nil, errors.NewStorageError("failed to connect to database", err).
		WithContext("host", cfg.Host).
		WithContext("database", cfg.Name)
}

// Close releases the underlying connection pool
func (s *FlightStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the flights table if it does not exist
func (s *FlightStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.NewStorageError("failed to ensure flights schema", err)
	}
	return nil
}

// SaveFlights inserts the curated record set in a single transaction.
// Records whose flight_id already exists are skipped, which makes the
// operation idempotent. Returns the number of newly inserted rows.
func (s *FlightStore) SaveFlights(ctx context.Context, records []domain.FlightRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertSQL)
	if err != nil {
		return 0, errors.NewStorageError("failed to prepare insert", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			r.FlightID,
			r.AircraftID,
			r.Origin,
			r.Destination,
			r.ScheduledDeparture,
			r.ActualDeparture,
			r.ScheduledArrival,
			r.ActualArrival,
			string(r.Status),
			r.FareUSD,
			r.FlightDate,
		)
		if err != nil {
			return 0, errors.NewStorageError("failed to insert flight", err).
				WithContext("flight_id", r.FlightID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.NewStorageError("failed to read rows affected", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorageError("failed to commit transaction", err)
	}

	s.logger.InfoContext(ctx, "flights persisted",
		slog.Int("record_count", len(records)),
		slog.Int64("inserted", inserted),
		slog.Int64("skipped_existing", int64(len(records))-inserted))

	return inserted, nil
}
