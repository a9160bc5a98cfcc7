package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gigsight/trips-cli/internal/db"
	"github.com/gigsight/trips-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_trip":       `INSERT INTO trips (id, data, metrics, status, corrected, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_trip":       `UPDATE trips SET data = $1, metrics = $2, status = $3, corrected = $4, updated_at = $5 WHERE id = $6`,
	"get_trip":          `SELECT id, data, metrics, status, corrected, created_at, updated_at FROM trips WHERE id = $1`,
	"insert_screenshot": `INSERT INTO screenshots (id, trip_id, screenshot_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"list_screenshots":  `SELECT payload FROM screenshots WHERE trip_id = $1 ORDER BY created_at ASC`,
	"insert_weekly":     `INSERT INTO weekly_reports (id, period_start, period_end, report, created_at) VALUES ($1, $2, $3, $4, $5)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., bulk archive imports).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS trips (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	data       JSONB NOT NULL,
	metrics    JSONB,
	status     TEXT,
	corrected  JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS screenshots (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	trip_id         TEXT REFERENCES trips(id),
	screenshot_type TEXT NOT NULL,
	payload         JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS weekly_reports (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	period_start TIMESTAMPTZ NOT NULL,
	period_end   TIMESTAMPTZ NOT NULL,
	report       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_trips_status ON trips(status);
CREATE INDEX IF NOT EXISTS idx_trips_created_at ON trips(created_at);
CREATE INDEX IF NOT EXISTS idx_trips_platform ON trips((data->>'platform'));
CREATE INDEX IF NOT EXISTS idx_screenshots_trip_id ON screenshots(trip_id);
CREATE INDEX IF NOT EXISTS idx_screenshots_type ON screenshots(screenshot_type);
CREATE INDEX IF NOT EXISTS idx_weekly_reports_period ON weekly_reports(period_start, period_end);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateTrip(ctx context.Context, trip *model.TripRecord) error {
	dataJSON, metricsJSON, correctedJSON, err := marshalTripJSONB(trip)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal trip")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO trips (id, data, metrics, status, corrected, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		trip.ID, dataJSON, metricsJSON, string(trip.Status), correctedJSON, trip.CreatedAt, trip.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert trip %s", trip.ID)
}

func (s *PostgresStore) UpdateTrip(ctx context.Context, trip *model.TripRecord) error {
	dataJSON, metricsJSON, correctedJSON, err := marshalTripJSONB(trip)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal trip")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE trips SET data = $1, metrics = $2, status = $3, corrected = $4, updated_at = $5 WHERE id = $6`,
		dataJSON, metricsJSON, string(trip.Status), correctedJSON, trip.UpdatedAt, trip.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update trip %s", trip.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "trip %s", trip.ID)
	}
	return nil
}

func (s *PostgresStore) GetTrip(ctx context.Context, tripID string) (*model.TripRecord, error) {
	var t model.TripRecord
	var dataJSON []byte
	var metricsJSON, correctedJSON *[]byte
	var status *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, data, metrics, status, corrected, created_at, updated_at FROM trips WHERE id = $1`,
		tripID,
	).Scan(&t.ID, &dataJSON, &metricsJSON, &status, &correctedJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "trip %s", tripID)
		}
		return nil, eris.Wrapf(err, "postgres: get trip %s", tripID)
	}

	if err := unmarshalTripJSONB(&t, dataJSON, metricsJSON, correctedJSON, status); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) ListTrips(ctx context.Context, filter TripFilter) ([]model.TripRecord, error) {
	query := `SELECT id, data, metrics, status, corrected, created_at, updated_at FROM trips WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Platform != "" {
		query += fmt.Sprintf(` AND data->>'platform' = $%d`, argIdx)
		args = append(args, filter.Platform)
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	if !filter.Until.IsZero() {
		query += fmt.Sprintf(` AND created_at < $%d`, argIdx)
		args = append(args, filter.Until.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list trips")
	}
	defer rows.Close()

	var trips []model.TripRecord
	for rows.Next() {
		var t model.TripRecord
		var dataJSON []byte
		var metricsJSON, correctedJSON *[]byte
		var status *string

		if err := rows.Scan(&t.ID, &dataJSON, &metricsJSON, &status, &correctedJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trip")
		}
		if err := unmarshalTripJSONB(&t, dataJSON, metricsJSON, correctedJSON, status); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, eris.Wrap(rows.Err(), "postgres: list trips iterate")
}

func (s *PostgresStore) AttachExtraction(ctx context.Context, ext *model.Extraction) error {
	payload, err := json.Marshal(ext)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extraction")
	}

	var tripID *string
	if ext.TripID != "" {
		tripID = &ext.TripID
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO screenshots (id, trip_id, screenshot_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ext.ID, tripID, string(ext.Type), payload, ext.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert screenshot %s", ext.ID)
}

// BulkAttachExtractions imports an extraction batch via the COPY protocol,
// for archive imports where per-row INSERTs are too slow.
func (s *PostgresStore) BulkAttachExtractions(ctx context.Context, exts []model.Extraction) (int64, error) {
	rows := make([][]any, 0, len(exts))
	for i := range exts {
		payload, err := json.Marshal(&exts[i])
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal extraction")
		}
		var tripID *string
		if exts[i].TripID != "" {
			tripID = &exts[i].TripID
		}
		rows = append(rows, []any{exts[i].ID, tripID, string(exts[i].Type), payload, exts[i].CreatedAt})
	}
	return db.CopyFrom(ctx, s.pool, "screenshots",
		[]string{"id", "trip_id", "screenshot_type", "payload", "created_at"}, rows)
}

func (s *PostgresStore) ListExtractions(ctx context.Context, tripID string) ([]model.Extraction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM screenshots WHERE trip_id = $1 ORDER BY created_at ASC`,
		tripID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list screenshots for trip %s", tripID)
	}
	defer rows.Close()
	return scanExtractionsPgx(rows)
}

func (s *PostgresStore) ListExtractionsByType(ctx context.Context, t model.ScreenshotType, since, until time.Time) ([]model.Extraction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM screenshots
		 WHERE screenshot_type = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at ASC`,
		string(t), since.UTC(), until.UTC(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list screenshots of type %s", t)
	}
	defer rows.Close()
	return scanExtractionsPgx(rows)
}

func (s *PostgresStore) SaveWeeklyReport(ctx context.Context, report *model.WeeklyValidationReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal weekly report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO weekly_reports (id, period_start, period_end, report, created_at) VALUES ($1, $2, $3, $4, $5)`,
		report.ID, report.PeriodStart.UTC(), report.PeriodEnd.UTC(), reportJSON, report.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert weekly report")
}

func (s *PostgresStore) ListWeeklyReports(ctx context.Context, limit int) ([]model.WeeklyValidationReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT report FROM weekly_reports ORDER BY period_start DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list weekly reports")
	}
	defer rows.Close()

	var reports []model.WeeklyValidationReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan weekly report")
		}
		var r model.WeeklyValidationReport
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal weekly report")
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list weekly reports iterate")
}

// helpers

func marshalTripJSONB(trip *model.TripRecord) (data, metrics, corrected []byte, err error) {
	data, err = json.Marshal(trip.Data)
	if err != nil {
		return nil, nil, nil, err
	}
	corrected, err = json.Marshal(trip.ManuallyCorrected)
	if err != nil {
		return nil, nil, nil, err
	}
	if trip.Metrics != nil {
		metrics, err = json.Marshal(trip.Metrics)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return data, metrics, corrected, nil
}

func unmarshalTripJSONB(t *model.TripRecord, dataJSON []byte, metricsJSON, correctedJSON *[]byte, status *string) error {
	if err := json.Unmarshal(dataJSON, &t.Data); err != nil {
		return eris.Wrap(err, "postgres: unmarshal trip data")
	}
	if metricsJSON != nil {
		t.Metrics = &model.FinancialMetrics{}
		if err := json.Unmarshal(*metricsJSON, t.Metrics); err != nil {
			return eris.Wrap(err, "postgres: unmarshal trip metrics")
		}
	}
	if correctedJSON != nil {
		if err := json.Unmarshal(*correctedJSON, &t.ManuallyCorrected); err != nil {
			return eris.Wrap(err, "postgres: unmarshal corrected fields")
		}
	}
	if status != nil {
		t.Status = model.TripStatus(*status)
	}
	return nil
}

func scanExtractionsPgx(rows pgx.Rows) ([]model.Extraction, error) {
	var exts []model.Extraction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan screenshot")
		}
		var e model.Extraction
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal screenshot payload")
		}
		exts = append(exts, e)
	}
	return exts, eris.Wrap(rows.Err(), "postgres: screenshots iterate")
}
