package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigsight/trips-cli/internal/model"
)

var testVehicle = Vehicle{RatedMPG: 25, FuelPricePerGallon: 3.50}

func TestDeriveFinancials(t *testing.T) {
	data := model.CombinedTripData{
		TotalEarnings: f64(15.75),
		Distance:      f64(12.8),
	}

	m := DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)

	assert.InDelta(t, 0.512, m.GasGallons, 0.0001) // 12.8 mi / 25 mpg
	assert.InDelta(t, 1.792, m.GasCost, 0.0001)
	assert.InDelta(t, 15.75-m.GasCost, m.Profit, 0.0001)
	require.NotNil(t, m.ProfitPerMile)
	assert.InDelta(t, m.Profit/12.8, *m.ProfitPerMile, 0.0001)

	// Full rated efficiency, ~89% margin.
	assert.Greater(t, m.PerformanceScore, 90.0)
	assert.LessOrEqual(t, m.PerformanceScore, 100.0)
}

func TestDeriveFinancials_NoEarnings(t *testing.T) {
	data := model.CombinedTripData{Distance: f64(12.8)}
	assert.Nil(t, DeriveFinancials(data, testVehicle))
}

func TestDeriveFinancials_EarningsFallbacks(t *testing.T) {
	// Base fare plus tip when no total was captured.
	data := model.CombinedTripData{
		FareAmount: f64(10.50),
		Tip:        f64(5.25),
	}
	m := DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)
	assert.InDelta(t, 15.75, m.TotalEarnings, 0.0001)

	// Offer estimate as the last resort.
	data = model.CombinedTripData{
		EstimatedFare: f64(12.50),
		EstimatedTip:  f64(2.00),
	}
	m = DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)
	assert.InDelta(t, 14.50, m.TotalEarnings, 0.0001)
}

func TestDeriveFinancials_NoDistance(t *testing.T) {
	data := model.CombinedTripData{TotalEarnings: f64(15.75)}

	m := DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)
	assert.Zero(t, m.GasCost)
	assert.InDelta(t, 15.75, m.Profit, 0.0001)
	assert.Nil(t, m.ProfitPerMile)
}

func TestDeriveFinancials_GallonsOverride(t *testing.T) {
	// A measured gas figure beats the rated-MPG estimate and feeds the
	// efficiency part of the score.
	data := model.CombinedTripData{
		TotalEarnings: f64(15.75),
		Distance:      f64(12.8),
		GasGallons:    f64(0.8), // 16 actual mpg vs 25 rated
	}

	m := DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)
	assert.InDelta(t, 0.8, m.GasGallons, 0.0001)
	assert.InDelta(t, 2.80, m.GasCost, 0.0001)

	baseline := DeriveFinancials(model.CombinedTripData{
		TotalEarnings: f64(15.75),
		Distance:      f64(12.8),
	}, testVehicle)
	assert.Less(t, m.PerformanceScore, baseline.PerformanceScore)
}

func TestComputeTipVariance(t *testing.T) {
	data := model.CombinedTripData{
		EstimatedFare: f64(12.50),
		EstimatedTip:  f64(2.00),
		TotalEarnings: f64(15.75),
		Tip:           f64(5.25),
	}

	r := ComputeTipVariance(data)
	require.NotNil(t, r)
	assert.InDelta(t, 14.50, r.EstimatedTotal, 0.0001)
	assert.InDelta(t, 15.75, r.ActualTotal, 0.0001)
	assert.InDelta(t, 1.25, r.TotalVariance, 0.0001)
	assert.InDelta(t, 3.25, r.TipVariance, 0.0001)
	assert.InDelta(t, 162.5, r.TipVariancePct, 0.0001)
	assert.Equal(t, model.VarianceSignificantlyOver, r.Category)
}

func TestComputeTipVariance_RequiresBothSides(t *testing.T) {
	assert.Nil(t, ComputeTipVariance(model.CombinedTripData{TotalEarnings: f64(15.75)}))
	assert.Nil(t, ComputeTipVariance(model.CombinedTripData{EstimatedFare: f64(12.50)}))
}

func TestVarianceCategory_Boundaries(t *testing.T) {
	cases := []struct {
		variance float64
		want     model.VarianceCategory
	}{
		{0, model.VarianceExact},
		{0.25, model.VarianceExact},
		{-0.25, model.VarianceExact},
		{0.5, model.VarianceOver},
		{1.0, model.VarianceOver},
		{-1.0, model.VarianceUnder},
		{1.5, model.VarianceSignificantlyOver},
		{-1.5, model.VarianceSignificantlyUnder},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, varianceCategory(tc.variance), "variance: %v", tc.variance)
	}
}

func TestPerformanceScore_MarginUsesFare(t *testing.T) {
	// Margin is profit over the base fare, not over fare plus tip.
	data := model.CombinedTripData{
		FareAmount:    f64(18.00),
		Tip:           f64(5.00),
		TotalEarnings: f64(23.00),
		Distance:      f64(60.0),
	}

	m := DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)
	assert.InDelta(t, 8.40, m.GasCost, 0.0001)
	assert.InDelta(t, 14.60, m.Profit, 0.0001)
	// 50 + 30*(14.60/18.00) + 20
	assert.InDelta(t, 94.33, m.PerformanceScore, 0.01)

	// Offer-only trips fall back to the estimated fare.
	data = model.CombinedTripData{
		EstimatedFare: f64(12.50),
		EstimatedTip:  f64(2.00),
		Distance:      f64(30.0),
	}
	m = DeriveFinancials(data, testVehicle)
	require.NotNil(t, m)
	// 50 + 30*(10.30/12.50) + 20
	assert.InDelta(t, 94.72, m.PerformanceScore, 0.01)
}

func TestPerformanceScore_Clamped(t *testing.T) {
	// A losing trip can never push the efficiency bonus below the baseline
	// floor, and a perfect one never exceeds 100.
	assert.GreaterOrEqual(t, performanceScore(-50, 10, 25, 25), 0.0)
	assert.LessOrEqual(t, performanceScore(100, 100, 40, 25), 100.0)
}
