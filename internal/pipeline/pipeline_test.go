package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/store"
)

const (
	offerText = "New offer\nEstimated fare: $12.50\nIncludes $2.00 tip\nDistance: 8.2 miles\nPickup: Main St Cafe\nUber Eats"
	finalText = "You earned $15.75\nTip: $5.25\nDistance: 12.8 miles\nTime: 32 min"
)

func newTestPipeline(t *testing.T) (*Pipeline, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	p := New(st, model.MustNewRegistry(), testVehicle)
	return p, st
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t)

	ext, trip, err := p.ProcessScreenshot(ctx, "", model.OCRInput{Text: offerText})
	require.NoError(t, err)
	require.NotNil(t, trip)
	assert.Equal(t, model.TypeInitialOffer, ext.Type)
	assert.Equal(t, model.StatusInitialScreenshot, trip.Status)
	assert.True(t, trip.Data.Estimated)
	require.NotNil(t, trip.Data.EstimatedFare)
	assert.Equal(t, 12.50, *trip.Data.EstimatedFare)

	ext, trip, err = p.ProcessScreenshot(ctx, trip.ID, model.OCRInput{Text: finalText})
	require.NoError(t, err)
	assert.Equal(t, model.TypeFinalTotal, ext.Type)
	assert.Equal(t, model.StatusCompleteWorkflow, trip.Status)
	assert.False(t, trip.Data.Estimated)

	require.NotNil(t, trip.Data.TotalEarnings)
	assert.Equal(t, 15.75, *trip.Data.TotalEarnings)
	require.NotNil(t, trip.Data.Distance)
	assert.Equal(t, 12.8, *trip.Data.Distance) // final-total distance supersedes the offer's
	require.NotNil(t, trip.Data.Platform)
	assert.Equal(t, "Uber Eats", *trip.Data.Platform)
	assert.Len(t, trip.Data.Sources, 2)
	assert.GreaterOrEqual(t, trip.Data.Confidence, 0.8)

	require.NotNil(t, trip.Metrics)
	assert.InDelta(t, 1.792, trip.Metrics.GasCost, 0.0001) // 12.8 mi / 25 mpg * $3.50
	assert.InDelta(t, 13.958, trip.Metrics.Profit, 0.0001)
	require.NotNil(t, trip.Metrics.TipVariance)
	assert.Equal(t, model.VarianceSignificantlyOver, trip.Metrics.TipVariance.Category)
}

func TestPipeline_WeeklySummaryHasNoTrip(t *testing.T) {
	ctx := context.Background()
	p, st := newTestPipeline(t)

	ext, trip, err := p.ProcessScreenshot(ctx, "", model.OCRInput{
		Text: "Weekly summary\nTrips: 52\nTotal earnings: $892.50",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypeWeeklySummary, ext.Type)
	assert.Nil(t, trip)
	assert.Empty(t, ext.TripID)

	trips, err := st.ListTrips(ctx, store.TripFilter{})
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestPipeline_CorrectionsSurviveRecompute(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t)

	_, trip, err := p.ProcessScreenshot(ctx, "", model.OCRInput{Text: offerText})
	require.NoError(t, err)
	_, trip, err = p.ProcessScreenshot(ctx, trip.ID, model.OCRInput{Text: finalText})
	require.NoError(t, err)

	trip, err = p.Correct(ctx, trip.ID, map[string]any{model.FieldTip: 8.00})
	require.NoError(t, err)
	require.NotNil(t, trip.Data.Tip)
	assert.Equal(t, 8.00, *trip.Data.Tip)
	assert.Contains(t, trip.ManuallyCorrected, model.FieldTip)

	// A recompute rebuilds from the extractions (which say $5.25) but the
	// protected correction must win again.
	trip, err = p.Recompute(ctx, trip.ID)
	require.NoError(t, err)
	require.NotNil(t, trip.Data.Tip)
	assert.Equal(t, 8.00, *trip.Data.Tip)
	assert.Contains(t, trip.ManuallyCorrected, model.FieldTip)
	assert.Equal(t, model.StatusCompleteWorkflow, trip.Status)
}

func TestPipeline_CorrectRejectsUnknownField(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t)

	_, trip, err := p.ProcessScreenshot(ctx, "", model.OCRInput{Text: offerText})
	require.NoError(t, err)

	_, err = p.Correct(ctx, trip.ID, map[string]any{"bogus": 1.0})
	assert.Error(t, err)
}

func TestPipeline_ValidateWeek(t *testing.T) {
	ctx := context.Background()
	p, st := newTestPipeline(t)

	_, trip, err := p.ProcessScreenshot(ctx, "", model.OCRInput{Text: offerText})
	require.NoError(t, err)
	_, _, err = p.ProcessScreenshot(ctx, trip.ID, model.OCRInput{Text: finalText})
	require.NoError(t, err)

	_, _, err = p.ProcessScreenshot(ctx, "", model.OCRInput{
		Text: "Weekly summary\nTrips: 1\nTotal earnings: $15.75",
	})
	require.NoError(t, err)

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)

	report, err := p.ValidateWeek(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, report.IndividualTotals.Trips)
	assert.InDelta(t, 15.75, report.IndividualTotals.Earnings, 0.0001)
	assert.InDelta(t, 100.0, report.OverallAccuracy, 0.0001)
	assert.Empty(t, report.Discrepancies)

	saved, err := st.ListWeeklyReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, report.ID, saved[0].ID)
}

func TestPipeline_ValidateWeek_NoSummary(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t)

	start := time.Now().UTC().Add(-time.Hour)
	_, err := p.ValidateWeek(ctx, start, start.Add(2*time.Hour))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoWeeklySummary))
}

func TestPipeline_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t)

	items := []BatchItem{
		{TripID: "trip-1", Input: model.OCRInput{Text: offerText}},
		{TripID: "trip-1", Input: model.OCRInput{Text: finalText}},
		{Input: model.OCRInput{Text: "Weekly summary\nTrips: 52\nTotal earnings: $892.50"}},
	}

	results, err := p.ProcessBatch(ctx, items, 4)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}

	// The two trip-1 items applied in order.
	require.NotNil(t, results[1].Trip)
	assert.Equal(t, model.StatusCompleteWorkflow, results[1].Trip.Status)
	assert.Nil(t, results[2].Trip)

	trip, err := p.Recompute(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleteWorkflow, trip.Status)
}
