package model

import "time"

// Severity ranks a weekly validation discrepancy. Every reported
// discrepancy is at least medium; high marks one large enough to suggest
// whole trips are missing rather than OCR drift.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Discrepancy types emitted by the weekly validator.
const (
	DiscrepancyTripCount = "trip_count_mismatch"
	DiscrepancyEarnings  = "earnings_mismatch"
	DiscrepancyDistance  = "distance_mismatch"
)

// Discrepancy describes one weekly-summary field that disagrees with the
// aggregate of individual trips.
type Discrepancy struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Expected       float64  `json:"expected"`
	Actual         float64  `json:"actual"`
	Difference     float64  `json:"difference"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// WeeklyTotals aggregates individual trip records for validation. Only
// trips with confirmed earnings (> 0) participate.
type WeeklyTotals struct {
	Trips    int     `json:"trips"`
	Earnings float64 `json:"earnings"`
	Distance float64 `json:"distance"`
	Profit   float64 `json:"profit"`
}

// WeeklyValidationReport is the output of cross-checking one weekly-summary
// extraction against the individual trips for the same period. Ephemeral in
// the core; the store keeps a copy for audit.
type WeeklyValidationReport struct {
	ID               string              `json:"id,omitempty"`
	PeriodStart      time.Time           `json:"period_start"`
	PeriodEnd        time.Time           `json:"period_end"`
	WeeklyData       WeeklySummaryFields `json:"weekly_data"`
	IndividualTotals WeeklyTotals        `json:"individual_totals"`
	TripsAccuracy    float64             `json:"trips_accuracy"`
	EarningsAccuracy float64             `json:"earnings_accuracy"`
	DistanceAccuracy float64             `json:"distance_accuracy"`
	OverallAccuracy  float64             `json:"overall_accuracy"`
	Discrepancies    []Discrepancy       `json:"discrepancies"`
	CreatedAt        time.Time           `json:"created_at,omitempty"`
}
