package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigsight/trips-cli/internal/model"
)

func TestNormalize_InitialOffer(t *testing.T) {
	reg := model.MustNewRegistry()
	in := model.OCRInput{
		Text: "New offer\nEstimated fare: $12.50\nIncludes $2.00 tip\nDistance: 8.2 miles\nTime: 25 min\nPickup: Main St Cafe\nUber Eats",
	}

	ext := Normalize(in, reg)

	assert.Equal(t, model.TypeInitialOffer, ext.Type)
	assert.NotEmpty(t, ext.ID)

	fields, ok := ext.Fields.(*model.InitialOfferFields)
	require.True(t, ok)
	require.NotNil(t, fields.EstimatedFare)
	assert.Equal(t, 12.50, *fields.EstimatedFare)
	require.NotNil(t, fields.Distance)
	assert.Equal(t, 8.2, *fields.Distance)
	require.NotNil(t, fields.Platform)
	assert.Equal(t, "Uber Eats", *fields.Platform)

	// Both required fields detected.
	assert.GreaterOrEqual(t, ext.Confidence, 0.8)
	assert.Contains(t, ext.Detected, model.FieldEstimatedFare)
	assert.Contains(t, ext.Detected, model.FieldDistance)
}

func TestNormalize_UnmatchablePayload(t *testing.T) {
	reg := model.MustNewRegistry()

	ext := Normalize(model.OCRInput{Text: "a grocery receipt"}, reg)

	assert.Equal(t, model.TypeUnknown, ext.Type)
	assert.Equal(t, model.QualityLow, ext.Quality)
	assert.Empty(t, ext.Detected)
}

func TestNormalize_ScansNumbersWhenAbsent(t *testing.T) {
	reg := model.MustNewRegistry()

	// No keyword for the fare, so extraction must go through the scanned
	// number list and the range fallback.
	ext := Normalize(model.OCRInput{Text: "New offer\n$12.50 shown on screen"}, reg)
	fields, ok := ext.Fields.(*model.InitialOfferFields)
	require.True(t, ok)
	require.NotNil(t, fields.EstimatedFare)
	assert.Equal(t, 12.50, *fields.EstimatedFare)
}

func TestComputeConfidence_Monotonic(t *testing.T) {
	reg := model.MustNewRegistry()
	tpl := reg.LookupOrUnknown(model.TypeInitialOffer)

	none := computeConfidence(nil, tpl)
	one := computeConfidence([]string{model.FieldEstimatedFare}, tpl)
	both := computeConfidence([]string{model.FieldEstimatedFare, model.FieldDistance}, tpl)

	assert.Less(t, none, one)
	assert.Less(t, one, both)
}

func TestComputeConfidence_Capped(t *testing.T) {
	reg := model.MustNewRegistry()
	tpl := reg.LookupOrUnknown(model.TypeInitialOffer)

	all := computeConfidence(tpl.Expected(), tpl)
	assert.Equal(t, maxConfidence, all)
}

func TestComputeConfidence_OptionalFieldsNeverHurt(t *testing.T) {
	reg := model.MustNewRegistry()
	tpl := reg.LookupOrUnknown(model.TypeInitialOffer)

	required := computeConfidence([]string{model.FieldEstimatedFare, model.FieldDistance}, tpl)
	withOptional := computeConfidence([]string{model.FieldEstimatedFare, model.FieldDistance, model.FieldEstimatedTip}, tpl)
	assert.GreaterOrEqual(t, withOptional, required)
}
