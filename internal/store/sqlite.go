package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gigsight/trips-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS trips (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	metrics    TEXT,
	status     TEXT,
	corrected  TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS screenshots (
	id              TEXT PRIMARY KEY,
	trip_id         TEXT REFERENCES trips(id),
	screenshot_type TEXT NOT NULL,
	payload         TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS weekly_reports (
	id           TEXT PRIMARY KEY,
	period_start DATETIME NOT NULL,
	period_end   DATETIME NOT NULL,
	report       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trips_status ON trips(status);
CREATE INDEX IF NOT EXISTS idx_trips_created_at ON trips(created_at);
CREATE INDEX IF NOT EXISTS idx_screenshots_trip_id ON screenshots(trip_id);
CREATE INDEX IF NOT EXISTS idx_screenshots_type ON screenshots(screenshot_type);
CREATE INDEX IF NOT EXISTS idx_weekly_reports_period ON weekly_reports(period_start, period_end);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *model.TripRecord) error {
	dataJSON, metricsJSON, correctedJSON, err := marshalTrip(trip)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal trip")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trips (id, data, metrics, status, corrected, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, dataJSON, metricsJSON, string(trip.Status), correctedJSON, trip.CreatedAt, trip.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert trip %s", trip.ID)
}

func (s *SQLiteStore) UpdateTrip(ctx context.Context, trip *model.TripRecord) error {
	dataJSON, metricsJSON, correctedJSON, err := marshalTrip(trip)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal trip")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE trips SET data = ?, metrics = ?, status = ?, corrected = ?, updated_at = ? WHERE id = ?`,
		dataJSON, metricsJSON, string(trip.Status), correctedJSON, trip.UpdatedAt, trip.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update trip %s", trip.ID)
	}
	return checkRowsAffected(res, "trip", trip.ID)
}

func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*model.TripRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, data, metrics, status, corrected, created_at, updated_at FROM trips WHERE id = ?`,
		tripID,
	)
	return scanTrip(row)
}

func (s *SQLiteStore) ListTrips(ctx context.Context, filter TripFilter) ([]model.TripRecord, error) {
	query := `SELECT id, data, metrics, status, corrected, created_at, updated_at FROM trips WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Platform != "" {
		query += ` AND json_extract(data, '$.platform') = ?`
		args = append(args, filter.Platform)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, filter.Until.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trips")
	}
	defer rows.Close()

	var trips []model.TripRecord
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, eris.Wrap(rows.Err(), "sqlite: list trips iterate")
}

func (s *SQLiteStore) AttachExtraction(ctx context.Context, ext *model.Extraction) error {
	payload, err := json.Marshal(ext)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extraction")
	}

	var tripID any
	if ext.TripID != "" {
		tripID = ext.TripID
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO screenshots (id, trip_id, screenshot_type, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		ext.ID, tripID, string(ext.Type), string(payload), ext.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert screenshot %s", ext.ID)
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, tripID string) ([]model.Extraction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM screenshots WHERE trip_id = ? ORDER BY created_at ASC`,
		tripID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list screenshots for trip %s", tripID)
	}
	defer rows.Close()
	return scanExtractions(rows)
}

func (s *SQLiteStore) ListExtractionsByType(ctx context.Context, t model.ScreenshotType, since, until time.Time) ([]model.Extraction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM screenshots
		 WHERE screenshot_type = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`,
		string(t), since.UTC(), until.UTC(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list screenshots of type %s", t)
	}
	defer rows.Close()
	return scanExtractions(rows)
}

func (s *SQLiteStore) SaveWeeklyReport(ctx context.Context, report *model.WeeklyValidationReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal weekly report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weekly_reports (id, period_start, period_end, report, created_at) VALUES (?, ?, ?, ?, ?)`,
		report.ID, report.PeriodStart.UTC(), report.PeriodEnd.UTC(), string(reportJSON), report.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert weekly report")
}

func (s *SQLiteStore) ListWeeklyReports(ctx context.Context, limit int) ([]model.WeeklyValidationReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT report FROM weekly_reports ORDER BY period_start DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list weekly reports")
	}
	defer rows.Close()

	var reports []model.WeeklyValidationReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan weekly report")
		}
		var r model.WeeklyValidationReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal weekly report")
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list weekly reports iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func marshalTrip(trip *model.TripRecord) (data string, metrics any, corrected string, err error) {
	dataJSON, err := json.Marshal(trip.Data)
	if err != nil {
		return "", nil, "", err
	}
	correctedJSON, err := json.Marshal(trip.ManuallyCorrected)
	if err != nil {
		return "", nil, "", err
	}
	if trip.Metrics != nil {
		metricsJSON, err := json.Marshal(trip.Metrics)
		if err != nil {
			return "", nil, "", err
		}
		metrics = string(metricsJSON)
	}
	return string(dataJSON), metrics, string(correctedJSON), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTrip(row scannable) (*model.TripRecord, error) {
	var t model.TripRecord
	var dataJSON string
	var metricsJSON, status, correctedJSON sql.NullString

	err := row.Scan(&t.ID, &dataJSON, &metricsJSON, &status, &correctedJSON, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "trip")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan trip")
	}

	if err := json.Unmarshal([]byte(dataJSON), &t.Data); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal trip data")
	}
	if metricsJSON.Valid {
		t.Metrics = &model.FinancialMetrics{}
		if err := json.Unmarshal([]byte(metricsJSON.String), t.Metrics); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal trip metrics")
		}
	}
	if status.Valid {
		t.Status = model.TripStatus(status.String)
	}
	if correctedJSON.Valid {
		if err := json.Unmarshal([]byte(correctedJSON.String), &t.ManuallyCorrected); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal corrected fields")
		}
	}
	return &t, nil
}

func scanExtractions(rows *sql.Rows) ([]model.Extraction, error) {
	var exts []model.Extraction
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan screenshot")
		}
		var e model.Extraction
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal screenshot payload")
		}
		exts = append(exts, e)
	}
	return exts, eris.Wrap(rows.Err(), "sqlite: screenshots iterate")
}
