package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gigsight/trips-cli/internal/model"
)

// Discrepancy thresholds: differences at or below these are treated as
// OCR noise and not reported. A reported discrepancy is medium unless it
// clears the per-field high mark.
const (
	tripCountTolerance = 1.0
	earningsTolerance  = 5.0
	distanceTolerance  = 10.0

	tripCountHigh = 5.0
	earningsHigh  = 50.0
	distanceHigh  = 100.0
)

// ValidateWeekly cross-checks a weekly-summary extraction against the
// individual trips recorded for the same period. Pure function: callers
// persist the report if they want an audit trail.
func ValidateWeekly(weekly model.WeeklySummaryFields, trips []model.TripRecord, periodStart, periodEnd time.Time) model.WeeklyValidationReport {
	totals := aggregateTrips(trips)

	report := model.WeeklyValidationReport{
		ID:               uuid.NewString(),
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		WeeklyData:       weekly,
		IndividualTotals: totals,
		CreatedAt:        time.Now().UTC(),
	}

	if weekly.TotalTrips != nil {
		report.TripsAccuracy = AccuracyRatio(float64(*weekly.TotalTrips), float64(totals.Trips))
		if d := discrepancy(model.DiscrepancyTripCount, float64(*weekly.TotalTrips), float64(totals.Trips)); d != nil {
			report.Discrepancies = append(report.Discrepancies, *d)
		}
	}
	if weekly.TotalEarnings != nil {
		report.EarningsAccuracy = AccuracyRatio(*weekly.TotalEarnings, totals.Earnings)
		if d := discrepancy(model.DiscrepancyEarnings, *weekly.TotalEarnings, totals.Earnings); d != nil {
			report.Discrepancies = append(report.Discrepancies, *d)
		}
	}
	if weekly.TotalDistance != nil {
		report.DistanceAccuracy = AccuracyRatio(*weekly.TotalDistance, totals.Distance)
		if d := discrepancy(model.DiscrepancyDistance, *weekly.TotalDistance, totals.Distance); d != nil {
			report.Discrepancies = append(report.Discrepancies, *d)
		}
	}

	report.OverallAccuracy = (report.TripsAccuracy + report.EarningsAccuracy) / 2
	return report
}

// AccuracyRatio scores agreement between two totals as min/max on a 0-100
// scale. Symmetric in its arguments; zero when either side is missing.
func AccuracyRatio(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return a / b * 100
}

// aggregateTrips sums the individual records that carry confirmed earnings.
// Trips without an earnings total are still being reconciled and would only
// distort the comparison.
func aggregateTrips(trips []model.TripRecord) model.WeeklyTotals {
	var totals model.WeeklyTotals
	for _, t := range trips {
		if t.Data.TotalEarnings == nil || *t.Data.TotalEarnings <= 0 {
			continue
		}
		totals.Trips++
		totals.Earnings += *t.Data.TotalEarnings
		if t.Data.Distance != nil {
			totals.Distance += *t.Data.Distance
		}
		if t.Metrics != nil {
			totals.Profit += t.Metrics.Profit
		}
	}
	return totals
}

func discrepancy(kind string, expected, actual float64) *model.Discrepancy {
	diff := math.Abs(expected - actual)

	var tolerance, high float64
	var unit, advice string
	switch kind {
	case model.DiscrepancyTripCount:
		tolerance, high, unit = tripCountTolerance, tripCountHigh, "trips"
		advice = "Capture a final-total screenshot for each missing trip."
	case model.DiscrepancyEarnings:
		tolerance, high, unit = earningsTolerance, earningsHigh, "dollars"
		advice = "Check for trips missing a final-total screenshot or with misread earnings."
	case model.DiscrepancyDistance:
		tolerance, high, unit = distanceTolerance, distanceHigh, "miles"
		advice = "Check for trips with missing or misread distances."
	}
	if diff <= tolerance {
		return nil
	}

	severity := model.SeverityMedium
	if diff > high {
		severity = model.SeverityHigh
	}

	return &model.Discrepancy{
		Type:           kind,
		Severity:       severity,
		Expected:       expected,
		Actual:         actual,
		Difference:     diff,
		Description:    fmt.Sprintf("weekly summary reports %.1f %s, individual trips total %.1f", expected, unit, actual),
		Recommendation: advice,
	}
}
