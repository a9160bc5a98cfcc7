package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/gigsight/trips-cli/internal/model"
)

// CombineExtractions merges all extractions attached to one trip into a
// single combined record. The merge is deterministic and idempotent: it
// depends only on the extraction set, so re-running it over the same set
// yields the same record.
//
// Sources apply lowest-priority first: initial offer, then navigation
// (gap-fill only), then daily trip summary (only when no final total
// exists), then final total (actuals overwrite), then odometer.
func CombineExtractions(extractions []model.Extraction) model.CombinedTripData {
	var data model.CombinedTripData

	initial := lastOfType(extractions, model.TypeInitialOffer)
	final := lastOfType(extractions, model.TypeFinalTotal)
	nav := lastOfType(extractions, model.TypeNavigation)
	summary := lastOfType(extractions, model.TypeTripSummary)
	odometer := lastOfType(extractions, model.TypeDashboardOdometer)

	if f, ok := fieldsAs[*model.InitialOfferFields](initial); ok {
		data.EstimatedFare = f.EstimatedFare
		data.EstimatedTip = f.EstimatedTip
		data.EstimatedTime = f.EstimatedTime
		data.Distance = f.Distance
		data.PickupLocation = f.PickupLocation
		data.DropoffLocation = f.DropoffLocation
		data.Platform = f.Platform
	}

	if f, ok := fieldsAs[*model.NavigationFields](nav); ok {
		if data.Distance == nil {
			data.Distance = f.Distance
		}
		if data.DropoffLocation == nil {
			data.DropoffLocation = f.Destination
		}
	}

	finalFields, hasFinal := fieldsAs[*model.FinalTotalFields](final)

	if f, ok := fieldsAs[*model.TripSummaryFields](summary); ok && !hasFinal {
		data.TotalTrips = f.TotalTrips
		data.TotalDistance = f.TotalDistance
		if data.TotalEarnings == nil {
			data.TotalEarnings = f.TotalEarnings
		}
	}

	if hasFinal {
		f := finalFields
		data.TotalEarnings = f.TotalEarnings
		data.FareAmount = f.BaseFare
		data.Tip = f.Tip
		if f.Distance != nil {
			data.Distance = f.Distance
		}
		if f.Duration != nil {
			data.Duration = f.Duration
		}
		if f.Platform != nil {
			data.Platform = f.Platform
		}
	}

	if f, ok := fieldsAs[*model.OdometerFields](odometer); ok {
		data.OdometerReading = f.OdometerReading
	}

	data.Estimated = !hasFinal
	data.Confidence = combinedConfidence(extractions)
	for _, e := range extractions {
		data.Sources = append(data.Sources, e.Type)
	}
	return data
}

// DeriveStatus computes the workflow status from which screenshot types are
// attached. A trip with no extractions has no status yet.
func DeriveStatus(extractions []model.Extraction) model.TripStatus {
	hasInitial := lastOfType(extractions, model.TypeInitialOffer) != nil
	hasFinal := lastOfType(extractions, model.TypeFinalTotal) != nil
	switch {
	case hasInitial && hasFinal:
		return model.StatusCompleteWorkflow
	case hasFinal:
		return model.StatusFinalScreenshot
	case len(extractions) > 0:
		return model.StatusInitialScreenshot
	default:
		return ""
	}
}

// combinedConfidence is the detected-element-weighted mean of source
// confidences. Extractions that detected nothing carry no weight, so an
// empty unknown screenshot cannot drag a trip's confidence down.
func combinedConfidence(extractions []model.Extraction) float64 {
	var sum, weight float64
	for _, e := range extractions {
		w := float64(len(e.Detected))
		sum += e.Confidence * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// fieldsAs resolves an extraction's typed fields, tolerating nil and a
// Fields value that does not match the extraction's declared type. A
// mismatched source is skipped rather than panicking the merge.
func fieldsAs[T model.Fields](e *model.Extraction) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	f, ok := e.Fields.(T)
	return f, ok
}

// lastOfType returns the most recently created extraction of the given
// type, or nil. Later screenshots of the same type supersede earlier ones.
func lastOfType(extractions []model.Extraction, t model.ScreenshotType) *model.Extraction {
	var best *model.Extraction
	for i := range extractions {
		e := &extractions[i]
		if e.Type != t {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = e
		}
	}
	return best
}

// ApplyCorrection overwrites one combined field with a manually supplied
// value. Field names are the canonical ones used by templates.
func ApplyCorrection(data *model.CombinedTripData, field string, value any) error {
	switch field {
	case model.FieldEstimatedFare:
		return setFloat(&data.EstimatedFare, field, value)
	case model.FieldEstimatedTip:
		return setFloat(&data.EstimatedTip, field, value)
	case model.FieldEstimatedTime:
		return setFloat(&data.EstimatedTime, field, value)
	case model.FieldBaseFare:
		return setFloat(&data.FareAmount, field, value)
	case model.FieldTip:
		return setFloat(&data.Tip, field, value)
	case model.FieldTotalEarnings:
		return setFloat(&data.TotalEarnings, field, value)
	case model.FieldDistance:
		return setFloat(&data.Distance, field, value)
	case model.FieldDuration:
		return setFloat(&data.Duration, field, value)
	case model.FieldOdometerReading:
		return setFloat(&data.OdometerReading, field, value)
	case model.FieldGasGallons:
		return setFloat(&data.GasGallons, field, value)
	case model.FieldTotalDistance:
		return setFloat(&data.TotalDistance, field, value)
	case model.FieldTotalTrips:
		switch n := value.(type) {
		case int:
			data.TotalTrips = &n
		case float64:
			i := int(n)
			data.TotalTrips = &i
		default:
			return eris.Errorf("pipeline: correction %q wants an integer, got %T", field, value)
		}
		return nil
	case model.FieldPlatform:
		return setString(&data.Platform, field, value)
	case model.FieldPickupLocation:
		return setString(&data.PickupLocation, field, value)
	case model.FieldDropoffLocation:
		return setString(&data.DropoffLocation, field, value)
	default:
		return eris.Errorf("pipeline: unknown correction field %q", field)
	}
}

// CorrectionValue reads one combined field by canonical name, for
// re-applying protected manual corrections after a recombine.
func CorrectionValue(data *model.CombinedTripData, field string) (any, bool) {
	switch field {
	case model.FieldEstimatedFare:
		return floatValue(data.EstimatedFare)
	case model.FieldEstimatedTip:
		return floatValue(data.EstimatedTip)
	case model.FieldEstimatedTime:
		return floatValue(data.EstimatedTime)
	case model.FieldBaseFare:
		return floatValue(data.FareAmount)
	case model.FieldTip:
		return floatValue(data.Tip)
	case model.FieldTotalEarnings:
		return floatValue(data.TotalEarnings)
	case model.FieldDistance:
		return floatValue(data.Distance)
	case model.FieldDuration:
		return floatValue(data.Duration)
	case model.FieldOdometerReading:
		return floatValue(data.OdometerReading)
	case model.FieldGasGallons:
		return floatValue(data.GasGallons)
	case model.FieldTotalDistance:
		return floatValue(data.TotalDistance)
	case model.FieldTotalTrips:
		if data.TotalTrips != nil {
			return *data.TotalTrips, true
		}
	case model.FieldPlatform:
		return stringValue(data.Platform)
	case model.FieldPickupLocation:
		return stringValue(data.PickupLocation)
	case model.FieldDropoffLocation:
		return stringValue(data.DropoffLocation)
	}
	return nil, false
}

func setFloat(dst **float64, field string, value any) error {
	switch n := value.(type) {
	case float64:
		*dst = &n
	case int:
		f := float64(n)
		*dst = &f
	default:
		return eris.Errorf("pipeline: correction %q wants a number, got %T", field, value)
	}
	return nil
}

func setString(dst **string, field string, value any) error {
	s, ok := value.(string)
	if !ok {
		return eris.Errorf("pipeline: correction %q wants a string, got %T", field, value)
	}
	*dst = &s
	return nil
}

func floatValue(v *float64) (any, bool) {
	if v != nil {
		return *v, true
	}
	return nil, false
}

func stringValue(v *string) (any, bool) {
	if v != nil {
		return *v, true
	}
	return nil, false
}
