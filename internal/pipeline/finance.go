package pipeline

import "github.com/gigsight/trips-cli/internal/model"

// Tip variance bucket boundaries, in dollars. Exactly 1.00 is a plain
// over/under; only a strictly larger gap is significant.
const (
	tipVarianceExact       = 0.25
	tipVarianceSignificant = 1.00
)

// Vehicle holds the per-vehicle constants financial derivation needs.
type Vehicle struct {
	RatedMPG           float64
	FuelPricePerGallon float64
}

// DeriveFinancials computes the per-trip economics from a combined record.
// All metrics derive from the combined data on every call; nothing is
// carried over from a previous derivation. Returns nil when the record has
// no earnings figure to price against.
func DeriveFinancials(data model.CombinedTripData, vehicle Vehicle) *model.FinancialMetrics {
	total, ok := totalEarnings(data)
	if !ok {
		return nil
	}

	m := &model.FinancialMetrics{TotalEarnings: total}

	var distance float64
	if data.Distance != nil {
		distance = *data.Distance
	}

	actualMPG := vehicle.RatedMPG
	if distance > 0 && vehicle.RatedMPG > 0 {
		m.GasGallons = distance / vehicle.RatedMPG
	}
	if data.GasGallons != nil && *data.GasGallons > 0 {
		m.GasGallons = *data.GasGallons
		if distance > 0 {
			actualMPG = distance / *data.GasGallons
		}
	}
	m.GasCost = m.GasGallons * vehicle.FuelPricePerGallon
	m.Profit = total - m.GasCost

	if distance > 0 {
		ppm := m.Profit / distance
		m.ProfitPerMile = &ppm
	}

	m.PerformanceScore = performanceScore(m.Profit, fareBase(data, total), actualMPG, vehicle.RatedMPG)
	m.TipVariance = ComputeTipVariance(data)
	return m
}

// fareBase resolves the denominator of the profit-margin term: the base
// fare when known, else the offer's estimate, else the earnings total.
func fareBase(data model.CombinedTripData, total float64) float64 {
	if data.FareAmount != nil && *data.FareAmount > 0 {
		return *data.FareAmount
	}
	if data.EstimatedFare != nil && *data.EstimatedFare > 0 {
		return *data.EstimatedFare
	}
	return total
}

// performanceScore grades a trip on a 0-100 scale: 50 points baseline, up
// to 30 for profit margin against the fare, up to 20 for fuel efficiency
// against the rated figure. Both ratios are capped at 1.
func performanceScore(profit, fare, actualMPG, ratedMPG float64) float64 {
	score := 50.0
	if fare > 0 {
		score += 30 * clamp01(profit/fare)
	}
	if ratedMPG > 0 {
		score += 20 * clamp01(actualMPG/ratedMPG)
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ComputeTipVariance compares the offer's estimate against the final total.
// Requires both sides: returns nil unless the record has an estimated fare
// and an actual earnings total.
func ComputeTipVariance(data model.CombinedTripData) *model.TipVarianceResult {
	if data.EstimatedFare == nil || data.TotalEarnings == nil {
		return nil
	}

	r := &model.TipVarianceResult{
		EstimatedTotal: *data.EstimatedFare,
		ActualTotal:    *data.TotalEarnings,
	}
	if data.EstimatedTip != nil {
		r.EstimatedTotal += *data.EstimatedTip
		r.EstimatedTip = *data.EstimatedTip
	}
	if data.Tip != nil {
		r.ActualTip = *data.Tip
	}

	r.TotalVariance = r.ActualTotal - r.EstimatedTotal
	r.TipVariance = r.ActualTip - r.EstimatedTip
	if r.EstimatedTip > 0 {
		r.TipVariancePct = r.TipVariance / r.EstimatedTip * 100
	}
	r.Category = varianceCategory(r.TipVariance)
	return r
}

func varianceCategory(tipVariance float64) model.VarianceCategory {
	abs := tipVariance
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= tipVarianceExact:
		return model.VarianceExact
	case abs <= tipVarianceSignificant:
		if tipVariance > 0 {
			return model.VarianceOver
		}
		return model.VarianceUnder
	default:
		if tipVariance > 0 {
			return model.VarianceSignificantlyOver
		}
		return model.VarianceSignificantlyUnder
	}
}

// totalEarnings resolves the record's earnings figure: actual total first,
// then base fare plus tip, then the offer's estimate.
func totalEarnings(data model.CombinedTripData) (float64, bool) {
	if data.TotalEarnings != nil {
		return *data.TotalEarnings, true
	}
	if data.FareAmount != nil {
		total := *data.FareAmount
		if data.Tip != nil {
			total += *data.Tip
		}
		return total, true
	}
	if data.EstimatedFare != nil {
		total := *data.EstimatedFare
		if data.EstimatedTip != nil {
			total += *data.EstimatedTip
		}
		return total, true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
