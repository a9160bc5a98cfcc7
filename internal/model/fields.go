package model

// Canonical field names shared by templates, extraction variants, and the
// combined trip record.
const (
	FieldEstimatedFare   = "estimated_fare"
	FieldEstimatedTip    = "estimated_tip"
	FieldEstimatedTime   = "estimated_time"
	FieldDistance        = "distance"
	FieldPickupLocation  = "pickup_location"
	FieldDropoffLocation = "dropoff_location"
	FieldPlatform        = "platform"
	FieldTotalEarnings   = "total_earnings"
	FieldBaseFare        = "base_fare"
	FieldTip             = "tip"
	FieldDuration        = "duration"
	FieldOdometerReading = "odometer_reading"
	FieldTotalTrips      = "total_trips"
	FieldTotalDistance   = "total_distance"
	FieldOnlineTime      = "online_time"
	FieldETA             = "eta"
	FieldDestination     = "destination"
	FieldGasGallons      = "gas_gallons"
)

// Fields is the tagged union of per-screenshot-type extraction variants.
// Each variant carries only its own strongly-typed optional fields; nil
// means the field was not extracted (ParseFailure is a value, not an error).
type Fields interface {
	ScreenshotType() ScreenshotType
	// Values returns the non-nil fields keyed by canonical field name.
	Values() map[string]any
}

// InitialOfferFields holds data from an offer/acceptance screen. Fare, tip,
// and time are estimates; actuals arrive with the final-total screenshot.
type InitialOfferFields struct {
	EstimatedFare   *float64 `json:"estimated_fare,omitempty"`
	EstimatedTip    *float64 `json:"estimated_tip,omitempty"`
	EstimatedTime   *float64 `json:"estimated_time,omitempty"`
	Distance        *float64 `json:"distance,omitempty"`
	PickupLocation  *string  `json:"pickup_location,omitempty"`
	DropoffLocation *string  `json:"dropoff_location,omitempty"`
	Platform        *string  `json:"platform,omitempty"`
}

func (f *InitialOfferFields) ScreenshotType() ScreenshotType { return TypeInitialOffer }

func (f *InitialOfferFields) Values() map[string]any {
	v := map[string]any{}
	putFloat(v, FieldEstimatedFare, f.EstimatedFare)
	putFloat(v, FieldEstimatedTip, f.EstimatedTip)
	putFloat(v, FieldEstimatedTime, f.EstimatedTime)
	putFloat(v, FieldDistance, f.Distance)
	putString(v, FieldPickupLocation, f.PickupLocation)
	putString(v, FieldDropoffLocation, f.DropoffLocation)
	putString(v, FieldPlatform, f.Platform)
	return v
}

// FinalTotalFields holds actuals from a completed-trip earnings screen.
type FinalTotalFields struct {
	TotalEarnings *float64 `json:"total_earnings,omitempty"`
	BaseFare      *float64 `json:"base_fare,omitempty"`
	Tip           *float64 `json:"tip,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
	Duration      *float64 `json:"duration,omitempty"`
	Platform      *string  `json:"platform,omitempty"`
}

func (f *FinalTotalFields) ScreenshotType() ScreenshotType { return TypeFinalTotal }

func (f *FinalTotalFields) Values() map[string]any {
	v := map[string]any{}
	putFloat(v, FieldTotalEarnings, f.TotalEarnings)
	putFloat(v, FieldBaseFare, f.BaseFare)
	putFloat(v, FieldTip, f.Tip)
	putFloat(v, FieldDistance, f.Distance)
	putFloat(v, FieldDuration, f.Duration)
	putString(v, FieldPlatform, f.Platform)
	return v
}

// OdometerFields holds a dashboard odometer reading.
type OdometerFields struct {
	OdometerReading *float64 `json:"odometer_reading,omitempty"`
}

func (f *OdometerFields) ScreenshotType() ScreenshotType { return TypeDashboardOdometer }

func (f *OdometerFields) Values() map[string]any {
	v := map[string]any{}
	putFloat(v, FieldOdometerReading, f.OdometerReading)
	return v
}

// TripSummaryFields holds aggregate counters from a daily summary screen.
type TripSummaryFields struct {
	TotalTrips    *int     `json:"total_trips,omitempty"`
	TotalEarnings *float64 `json:"total_earnings,omitempty"`
	TotalDistance *float64 `json:"total_distance,omitempty"`
	OnlineTime    *float64 `json:"online_time,omitempty"`
}

func (f *TripSummaryFields) ScreenshotType() ScreenshotType { return TypeTripSummary }

func (f *TripSummaryFields) Values() map[string]any {
	v := map[string]any{}
	putInt(v, FieldTotalTrips, f.TotalTrips)
	putFloat(v, FieldTotalEarnings, f.TotalEarnings)
	putFloat(v, FieldTotalDistance, f.TotalDistance)
	putFloat(v, FieldOnlineTime, f.OnlineTime)
	return v
}

// NavigationFields holds data from an in-trip navigation screen.
type NavigationFields struct {
	Distance    *float64 `json:"distance,omitempty"`
	ETA         *float64 `json:"eta,omitempty"`
	Destination *string  `json:"destination,omitempty"`
}

func (f *NavigationFields) ScreenshotType() ScreenshotType { return TypeNavigation }

func (f *NavigationFields) Values() map[string]any {
	v := map[string]any{}
	putFloat(v, FieldDistance, f.Distance)
	putFloat(v, FieldETA, f.ETA)
	putString(v, FieldDestination, f.Destination)
	return v
}

// WeeklySummaryFields holds aggregate totals from a weekly earnings screen.
type WeeklySummaryFields struct {
	TotalTrips    *int     `json:"total_trips,omitempty"`
	TotalEarnings *float64 `json:"total_earnings,omitempty"`
	TotalDistance *float64 `json:"total_distance,omitempty"`
	OnlineTime    *float64 `json:"online_time,omitempty"`
}

func (f *WeeklySummaryFields) ScreenshotType() ScreenshotType { return TypeWeeklySummary }

func (f *WeeklySummaryFields) Values() map[string]any {
	v := map[string]any{}
	putInt(v, FieldTotalTrips, f.TotalTrips)
	putFloat(v, FieldTotalEarnings, f.TotalEarnings)
	putFloat(v, FieldTotalDistance, f.TotalDistance)
	putFloat(v, FieldOnlineTime, f.OnlineTime)
	return v
}

// UnknownFields is the permissive variant for unclassifiable screenshots.
// Nothing is expected of it, so it carries no typed fields.
type UnknownFields struct{}

func (f *UnknownFields) ScreenshotType() ScreenshotType { return TypeUnknown }

func (f *UnknownFields) Values() map[string]any { return map[string]any{} }

// FieldsFromRaw converts a parsed field-name → value map into the typed
// variant for the given screenshot type. Values with the wrong underlying
// type are dropped rather than coerced across semantics; JSON round-trips
// (where ints surface as float64) are handled.
func FieldsFromRaw(t ScreenshotType, raw map[string]any) Fields {
	switch t {
	case TypeInitialOffer:
		return &InitialOfferFields{
			EstimatedFare:   rawFloat(raw, FieldEstimatedFare),
			EstimatedTip:    rawFloat(raw, FieldEstimatedTip),
			EstimatedTime:   rawFloat(raw, FieldEstimatedTime),
			Distance:        rawFloat(raw, FieldDistance),
			PickupLocation:  rawString(raw, FieldPickupLocation),
			DropoffLocation: rawString(raw, FieldDropoffLocation),
			Platform:        rawString(raw, FieldPlatform),
		}
	case TypeFinalTotal:
		return &FinalTotalFields{
			TotalEarnings: rawFloat(raw, FieldTotalEarnings),
			BaseFare:      rawFloat(raw, FieldBaseFare),
			Tip:           rawFloat(raw, FieldTip),
			Distance:      rawFloat(raw, FieldDistance),
			Duration:      rawFloat(raw, FieldDuration),
			Platform:      rawString(raw, FieldPlatform),
		}
	case TypeDashboardOdometer:
		return &OdometerFields{
			OdometerReading: rawFloat(raw, FieldOdometerReading),
		}
	case TypeTripSummary:
		return &TripSummaryFields{
			TotalTrips:    rawInt(raw, FieldTotalTrips),
			TotalEarnings: rawFloat(raw, FieldTotalEarnings),
			TotalDistance: rawFloat(raw, FieldTotalDistance),
			OnlineTime:    rawFloat(raw, FieldOnlineTime),
		}
	case TypeNavigation:
		return &NavigationFields{
			Distance:    rawFloat(raw, FieldDistance),
			ETA:         rawFloat(raw, FieldETA),
			Destination: rawString(raw, FieldDestination),
		}
	case TypeWeeklySummary:
		return &WeeklySummaryFields{
			TotalTrips:    rawInt(raw, FieldTotalTrips),
			TotalEarnings: rawFloat(raw, FieldTotalEarnings),
			TotalDistance: rawFloat(raw, FieldTotalDistance),
			OnlineTime:    rawFloat(raw, FieldOnlineTime),
		}
	default:
		return &UnknownFields{}
	}
}

// --- map helpers ---

func putFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func putInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func rawFloat(m map[string]any, key string) *float64 {
	switch n := m[key].(type) {
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func rawInt(m map[string]any, key string) *int {
	switch n := m[key].(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	}
	return nil
}

func rawString(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok && s != "" {
		return &s
	}
	return nil
}
