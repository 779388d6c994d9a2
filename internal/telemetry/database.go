package telemetry

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenDB opens an instrumented Postgres pool and reports its pool stats as
// metrics.
func OpenDB(driverName, dsn string) (*sql.DB, error) {
	db, err := otelsql.Open(driverName, dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, err
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemPostgreSQL)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db stats metrics: %w", err)
	}
	return db, nil
}
