// Package export writes trip and weekly-report data to XLSX workbooks.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gigsight/trips-cli/internal/model"
)

var tripHeaders = []string{
	"id", "status", "platform", "estimated_fare", "estimated_tip",
	"fare_amount", "tip", "total_earnings", "distance", "duration",
	"gas_cost", "profit", "profit_per_mile", "performance_score",
	"tip_variance_category", "confidence", "created_at",
}

// WriteTrips writes one row per trip to an XLSX workbook at path.
func WriteTrips(path string, trips []model.TripRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Trips")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range tripHeaders {
		header.AddCell().Value = h
	}

	for _, t := range trips {
		row := sheet.AddRow()
		row.AddCell().Value = t.ID
		row.AddCell().Value = string(t.Status)
		addString(row, t.Data.Platform)
		addFloat(row, t.Data.EstimatedFare)
		addFloat(row, t.Data.EstimatedTip)
		addFloat(row, t.Data.FareAmount)
		addFloat(row, t.Data.Tip)
		addFloat(row, t.Data.TotalEarnings)
		addFloat(row, t.Data.Distance)
		addFloat(row, t.Data.Duration)

		if t.Metrics != nil {
			row.AddCell().SetFloat(t.Metrics.GasCost)
			row.AddCell().SetFloat(t.Metrics.Profit)
			addFloat(row, t.Metrics.ProfitPerMile)
			row.AddCell().SetFloat(t.Metrics.PerformanceScore)
			if t.Metrics.TipVariance != nil {
				row.AddCell().Value = string(t.Metrics.TipVariance.Category)
			} else {
				row.AddCell()
			}
		} else {
			for range 5 {
				row.AddCell()
			}
		}

		row.AddCell().SetFloat(t.Data.Confidence)
		row.AddCell().Value = t.CreatedAt.Format("2006-01-02 15:04")
	}

	return eris.Wrap(f.Save(path), "export: save workbook")
}

var weeklyHeaders = []string{
	"period_start", "period_end", "reported_trips", "counted_trips",
	"reported_earnings", "counted_earnings", "trips_accuracy",
	"earnings_accuracy", "overall_accuracy", "discrepancies",
}

// WriteWeeklyReports writes one row per weekly validation report.
func WriteWeeklyReports(path string, reports []model.WeeklyValidationReport) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Weekly")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range weeklyHeaders {
		header.AddCell().Value = h
	}

	for _, r := range reports {
		row := sheet.AddRow()
		row.AddCell().Value = r.PeriodStart.Format("2006-01-02")
		row.AddCell().Value = r.PeriodEnd.Format("2006-01-02")
		addInt(row, r.WeeklyData.TotalTrips)
		row.AddCell().SetInt(r.IndividualTotals.Trips)
		addFloat(row, r.WeeklyData.TotalEarnings)
		row.AddCell().SetFloat(r.IndividualTotals.Earnings)
		row.AddCell().SetFloat(r.TripsAccuracy)
		row.AddCell().SetFloat(r.EarningsAccuracy)
		row.AddCell().SetFloat(r.OverallAccuracy)
		row.AddCell().SetInt(len(r.Discrepancies))
	}

	return eris.Wrap(f.Save(path), "export: save workbook")
}

func addFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func addInt(row *xlsx.Row, v *int) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt(*v)
	}
}

func addString(row *xlsx.Row, v *string) {
	cell := row.AddCell()
	if v != nil {
		cell.Value = *v
	}
}
