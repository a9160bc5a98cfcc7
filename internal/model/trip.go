package model

import "time"

// TripStatus tracks how far along a trip's screenshot workflow is. It is
// derived from which screenshot types are attached, never set directly.
type TripStatus string

const (
	StatusInitialScreenshot TripStatus = "initial_screenshot"
	StatusFinalScreenshot   TripStatus = "final_screenshot"
	StatusCompleteWorkflow  TripStatus = "complete_workflow"
)

// CombinedTripData is the single merged record produced from all screenshots
// belonging to one trip. Estimated fields keep their own slots so actuals
// from a final-total screenshot never clobber them; nil means no source
// provided the field.
type CombinedTripData struct {
	EstimatedFare   *float64 `json:"estimated_fare,omitempty"`
	EstimatedTip    *float64 `json:"estimated_tip,omitempty"`
	EstimatedTime   *float64 `json:"estimated_time,omitempty"`
	FareAmount      *float64 `json:"fare_amount,omitempty"`
	Tip             *float64 `json:"tip,omitempty"`
	TotalEarnings   *float64 `json:"driver_earnings_total,omitempty"`
	Distance        *float64 `json:"distance,omitempty"`
	Duration        *float64 `json:"duration,omitempty"`
	Platform        *string  `json:"platform,omitempty"`
	PickupLocation  *string  `json:"pickup_location,omitempty"`
	DropoffLocation *string  `json:"dropoff_location,omitempty"`
	OdometerReading *float64 `json:"odometer_reading,omitempty"`
	GasGallons      *float64 `json:"gas_gallons,omitempty"`
	TotalTrips      *int     `json:"total_trips,omitempty"`
	TotalDistance   *float64 `json:"total_distance,omitempty"`

	// Confidence is the detected-element-weighted mean of source
	// confidences; 0 for a record combined from zero sources.
	Confidence float64 `json:"combined_confidence"`
	// Estimated is set while no final-total screenshot has arrived.
	Estimated bool             `json:"estimated"`
	Sources   []ScreenshotType `json:"sources,omitempty"`
}

// TripRecord owns zero-or-more extractions and the combined data derived
// from them. Mutated only by re-running the reconciler over the full
// extraction set or by applying a manual correction.
type TripRecord struct {
	ID                string            `json:"id"`
	Data              CombinedTripData  `json:"trip_data"`
	Metrics           *FinancialMetrics `json:"metrics,omitempty"`
	Status            TripStatus        `json:"trip_status,omitempty"`
	ManuallyCorrected []string          `json:"manually_corrected,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
