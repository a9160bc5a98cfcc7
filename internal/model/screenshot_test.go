package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraction_JSONRoundTrip(t *testing.T) {
	orig := Extraction{
		ID:     "ext-1",
		TripID: "trip-1",
		Type:   TypeInitialOffer,
		Fields: &InitialOfferFields{
			EstimatedFare:  ptrFloat(12.50),
			Distance:       ptrFloat(8.2),
			PickupLocation: ptrString("Main St Cafe"),
			Platform:       ptrString("Uber Eats"),
		},
		Detected:   []string{FieldEstimatedFare, FieldDistance, FieldPickupLocation, FieldPlatform},
		Missing:    []string{FieldEstimatedTip},
		Confidence: 0.95,
		Quality:    QualityHigh,
		Source:     OCRInput{Text: "Estimated fare: $12.50", Numbers: []float64{12.50, 8.2}},
		CreatedAt:  time.Date(2026, 8, 17, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	// The union serializes under extracted_data, keyed by canonical names.
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	data, ok := wire["extracted_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 12.50, data[FieldEstimatedFare])
	assert.Equal(t, "Uber Eats", data[FieldPlatform])

	var got Extraction
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.Type, got.Type)
	assert.Equal(t, orig.Fields, got.Fields)
	assert.Equal(t, orig.Detected, got.Detected)
	assert.True(t, orig.CreatedAt.Equal(got.CreatedAt))
}

func TestExtraction_UnmarshalIntCount(t *testing.T) {
	// JSON has no integers; counters must come back as ints anyway.
	raw := []byte(`{
		"id": "ext-2",
		"screenshot_type": "weekly_summary",
		"extracted_data": {"total_trips": 52, "total_earnings": 892.50}
	}`)

	var got Extraction
	require.NoError(t, json.Unmarshal(raw, &got))

	fields, ok := got.Fields.(*WeeklySummaryFields)
	require.True(t, ok)
	require.NotNil(t, fields.TotalTrips)
	assert.Equal(t, 52, *fields.TotalTrips)
	require.NotNil(t, fields.TotalEarnings)
	assert.Equal(t, 892.50, *fields.TotalEarnings)
}

func TestFieldsFromRaw_DropsWrongTypes(t *testing.T) {
	fields := FieldsFromRaw(TypeInitialOffer, map[string]any{
		FieldEstimatedFare: "12.50", // string where a number belongs
		FieldPlatform:      42,      // number where a string belongs
		FieldDistance:      8.2,
	})

	offer, ok := fields.(*InitialOfferFields)
	require.True(t, ok)
	assert.Nil(t, offer.EstimatedFare)
	assert.Nil(t, offer.Platform)
	require.NotNil(t, offer.Distance)
	assert.Equal(t, 8.2, *offer.Distance)
}

func TestFieldsFromRaw_UnknownType(t *testing.T) {
	fields := FieldsFromRaw(ScreenshotType("selfie"), map[string]any{"anything": 1})
	assert.IsType(t, &UnknownFields{}, fields)
	assert.Empty(t, fields.Values())
}

func TestParseScreenshotType(t *testing.T) {
	assert.Equal(t, TypeFinalTotal, ParseScreenshotType("final_total"))
	assert.Equal(t, TypeUnknown, ParseScreenshotType("receipt"))
	assert.Equal(t, TypeUnknown, ParseScreenshotType(""))
}

func TestFields_ValuesOmitNil(t *testing.T) {
	f := &TripSummaryFields{
		TotalTrips:    ptrInt(8),
		TotalEarnings: ptrFloat(142.30),
	}
	values := f.Values()
	assert.Len(t, values, 2)
	_, present := values[FieldTotalDistance]
	assert.False(t, present)
}
