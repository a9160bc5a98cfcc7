package model

// VarianceCategory buckets the gap between an estimated and actual tip.
type VarianceCategory string

const (
	VarianceExact              VarianceCategory = "exact"
	VarianceOver               VarianceCategory = "over"
	VarianceSignificantlyOver  VarianceCategory = "significantly_over"
	VarianceUnder              VarianceCategory = "under"
	VarianceSignificantlyUnder VarianceCategory = "significantly_under"
)

// TipVarianceResult compares the initial offer's estimate against the final
// total. Ephemeral: recomputed whenever either source screenshot changes.
type TipVarianceResult struct {
	EstimatedTotal float64          `json:"estimated_total"`
	ActualTotal    float64          `json:"actual_total"`
	EstimatedTip   float64          `json:"estimated_tip"`
	ActualTip      float64          `json:"actual_tip"`
	TotalVariance  float64          `json:"total_variance"`
	TipVariance    float64          `json:"tip_variance"`
	TipVariancePct float64          `json:"tip_variance_percentage"`
	Category       VarianceCategory `json:"accuracy_category"`
}

// FinancialMetrics holds the derived per-trip economics. Profit is always
// recomputed from earnings and gas cost, never stored independently.
type FinancialMetrics struct {
	GasGallons       float64            `json:"gas_used_gallons"`
	GasCost          float64            `json:"gas_cost"`
	TotalEarnings    float64            `json:"total_earnings"`
	Profit           float64            `json:"profit"`
	ProfitPerMile    *float64           `json:"profit_per_mile,omitempty"`
	PerformanceScore float64            `json:"performance_score"`
	TipVariance      *TipVarianceResult `json:"tip_variance,omitempty"`
}
