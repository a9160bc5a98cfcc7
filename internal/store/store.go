package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gigsight/trips-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// TripFilter specifies criteria for listing trips.
type TripFilter struct {
	Status   model.TripStatus `json:"status,omitempty"`
	Platform string           `json:"platform,omitempty"`
	Since    time.Time        `json:"since,omitempty"`
	Until    time.Time        `json:"until,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the reconciliation pipeline.
type Store interface {
	// Trips
	CreateTrip(ctx context.Context, trip *model.TripRecord) error
	GetTrip(ctx context.Context, tripID string) (*model.TripRecord, error)
	ListTrips(ctx context.Context, filter TripFilter) ([]model.TripRecord, error)
	UpdateTrip(ctx context.Context, trip *model.TripRecord) error

	// Screenshot extractions
	AttachExtraction(ctx context.Context, ext *model.Extraction) error
	ListExtractions(ctx context.Context, tripID string) ([]model.Extraction, error)
	ListExtractionsByType(ctx context.Context, t model.ScreenshotType, since, until time.Time) ([]model.Extraction, error)

	// Weekly validation reports
	SaveWeeklyReport(ctx context.Context, report *model.WeeklyValidationReport) error
	ListWeeklyReports(ctx context.Context, limit int) ([]model.WeeklyValidationReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
