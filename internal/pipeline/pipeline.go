// Package pipeline implements the screenshot reconciliation flow: classify
// OCR payloads, parse template fields, merge per-trip extractions into a
// combined record, and derive the trip's financial metrics.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/store"
)

// ErrNoWeeklySummary is returned by ValidateWeek when the period contains
// no weekly-summary screenshot to validate against.
var ErrNoWeeklySummary = eris.New("pipeline: no weekly summary in period")

// Pipeline owns the full reconciliation flow for one driver's screenshots.
// Methods that mutate a trip must not run concurrently for the same trip ID;
// ProcessBatch enforces that by serializing per-trip work.
type Pipeline struct {
	store    store.Store
	registry *model.Registry
	vehicle  Vehicle
}

// New assembles a pipeline over the given store and template registry.
func New(st store.Store, reg *model.Registry, vehicle Vehicle) *Pipeline {
	return &Pipeline{store: st, registry: reg, vehicle: vehicle}
}

// ProcessScreenshot runs one OCR payload through the full flow: normalize,
// attach to the trip, recombine, and rederive metrics. An empty tripID
// starts a new trip. Weekly-summary screenshots belong to no trip; for
// those the returned trip is nil and the extraction is stored standalone.
func (p *Pipeline) ProcessScreenshot(ctx context.Context, tripID string, in model.OCRInput) (*model.Extraction, *model.TripRecord, error) {
	ext := Normalize(in, p.registry)

	if ext.Type == model.TypeWeeklySummary {
		if err := p.store.AttachExtraction(ctx, &ext); err != nil {
			return nil, nil, err
		}
		return &ext, nil, nil
	}

	trip, created, err := p.ensureTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	ext.TripID = trip.ID
	if err := p.store.AttachExtraction(ctx, &ext); err != nil {
		return nil, nil, err
	}

	if err := p.recombine(ctx, trip); err != nil {
		return nil, nil, err
	}
	if err := p.store.UpdateTrip(ctx, trip); err != nil {
		return nil, nil, err
	}

	zap.L().Info("processed screenshot",
		zap.String("trip_id", trip.ID),
		zap.Bool("trip_created", created),
		zap.String("screenshot_type", string(ext.Type)),
		zap.String("trip_status", string(trip.Status)),
	)
	return &ext, trip, nil
}

// Recompute rebuilds a trip's combined record and metrics from its stored
// extraction set, preserving manual corrections.
func (p *Pipeline) Recompute(ctx context.Context, tripID string) (*model.TripRecord, error) {
	trip, err := p.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := p.recombine(ctx, trip); err != nil {
		return nil, err
	}
	if err := p.store.UpdateTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// Correct overwrites combined fields with manually supplied values and
// marks them protected: later recombines keep the corrected values. Metrics
// rederive immediately.
func (p *Pipeline) Correct(ctx context.Context, tripID string, corrections map[string]any) (*model.TripRecord, error) {
	trip, err := p.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	for field, value := range corrections {
		if err := ApplyCorrection(&trip.Data, field, value); err != nil {
			return nil, err
		}
		if !contains(trip.ManuallyCorrected, field) {
			trip.ManuallyCorrected = append(trip.ManuallyCorrected, field)
		}
	}

	trip.Metrics = DeriveFinancials(trip.Data, p.vehicle)
	trip.UpdatedAt = time.Now().UTC()
	if err := p.store.UpdateTrip(ctx, trip); err != nil {
		return nil, err
	}

	zap.L().Info("applied manual corrections",
		zap.String("trip_id", trip.ID),
		zap.Int("fields", len(corrections)),
	)
	return trip, nil
}

// ValidateWeek cross-checks the latest weekly-summary screenshot in the
// period against the trips recorded for the same window and persists the
// resulting report.
func (p *Pipeline) ValidateWeek(ctx context.Context, periodStart, periodEnd time.Time) (*model.WeeklyValidationReport, error) {
	summaries, err := p.store.ListExtractionsByType(ctx, model.TypeWeeklySummary, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, eris.Wrapf(ErrNoWeeklySummary, "%s to %s",
			periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
	}
	latest := summaries[len(summaries)-1]
	weekly, ok := latest.Fields.(*model.WeeklySummaryFields)
	if !ok {
		return nil, eris.Errorf("pipeline: weekly summary %s has unexpected fields", latest.ID)
	}

	trips, err := p.store.ListTrips(ctx, store.TripFilter{
		Since: periodStart,
		Until: periodEnd,
		Limit: 1000,
	})
	if err != nil {
		return nil, err
	}

	report := ValidateWeekly(*weekly, trips, periodStart, periodEnd)
	if err := p.store.SaveWeeklyReport(ctx, &report); err != nil {
		return nil, err
	}

	zap.L().Info("validated week",
		zap.Time("period_start", periodStart),
		zap.Float64("overall_accuracy", report.OverallAccuracy),
		zap.Int("discrepancies", len(report.Discrepancies)),
	)
	return &report, nil
}

// ensureTrip fetches the trip or creates it. An empty ID always creates.
func (p *Pipeline) ensureTrip(ctx context.Context, tripID string) (*model.TripRecord, bool, error) {
	if tripID != "" {
		trip, err := p.store.GetTrip(ctx, tripID)
		if err == nil {
			return trip, false, nil
		}
		if !eris.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
	}
	if tripID == "" {
		tripID = uuid.NewString()
	}

	now := time.Now().UTC()
	trip := &model.TripRecord{ID: tripID, CreatedAt: now, UpdatedAt: now}
	if err := p.store.CreateTrip(ctx, trip); err != nil {
		return nil, false, err
	}
	return trip, true, nil
}

// recombine rebuilds the combined record from the trip's full extraction
// set, re-applies protected corrections, and rederives status and metrics.
func (p *Pipeline) recombine(ctx context.Context, trip *model.TripRecord) error {
	exts, err := p.store.ListExtractions(ctx, trip.ID)
	if err != nil {
		return err
	}

	data := CombineExtractions(exts)
	for _, field := range trip.ManuallyCorrected {
		if v, ok := CorrectionValue(&trip.Data, field); ok {
			if err := ApplyCorrection(&data, field, v); err != nil {
				return err
			}
		}
	}

	trip.Data = data
	trip.Status = DeriveStatus(exts)
	trip.Metrics = DeriveFinancials(data, p.vehicle)
	trip.UpdatedAt = time.Now().UTC()
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
