package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := MustNewRegistry()

	tpl, err := reg.Lookup(TypeInitialOffer)
	require.NoError(t, err)
	assert.Equal(t, TypeInitialOffer, tpl.Type)
	assert.Contains(t, tpl.Required(), FieldEstimatedFare)
	assert.Contains(t, tpl.Required(), FieldDistance)

	_, err = reg.Lookup(ScreenshotType("selfie"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownTemplate))
}

func TestRegistry_LookupOrUnknown(t *testing.T) {
	reg := MustNewRegistry()

	tpl := reg.LookupOrUnknown(ScreenshotType("selfie"))
	require.NotNil(t, tpl)
	assert.Equal(t, TypeUnknown, tpl.Type)
	assert.Empty(t, tpl.Expected())
}

func TestRegistry_EveryTypeHasTemplate(t *testing.T) {
	reg := MustNewRegistry()
	for _, st := range AllScreenshotTypes() {
		tpl, err := reg.Lookup(st)
		require.NoError(t, err, "type %s", st)
		assert.Equal(t, st, tpl.Type)
	}
}

func TestNewRegistry_Overrides(t *testing.T) {
	doc := []byte(`
- type: initial_offer
  fields:
    - name: estimated_fare
      keywords: ["garantiert"]
      max: 300
`)
	reg, err := NewRegistry(doc)
	require.NoError(t, err)

	tpl, err := reg.Lookup(TypeInitialOffer)
	require.NoError(t, err)

	var fare *FieldSpec
	for i := range tpl.Fields {
		if tpl.Fields[i].Name == FieldEstimatedFare {
			fare = &tpl.Fields[i]
		}
	}
	require.NotNil(t, fare)
	assert.Contains(t, fare.Keywords, "garantiert")
	assert.Equal(t, 300.0, fare.Max)
	// Extra keywords get compiled patterns like the built-ins.
	assert.Len(t, fare.AfterPatterns(), len(fare.Keywords))
}

func TestNewRegistry_OverrideUnknownType(t *testing.T) {
	_, err := NewRegistry([]byte(`[{type: selfie, fields: []}]`))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownTemplate))
}

func TestNewRegistry_BadYAML(t *testing.T) {
	_, err := NewRegistry([]byte(`{{not yaml`))
	assert.Error(t, err)
}

func TestAssessQuality(t *testing.T) {
	reg := MustNewRegistry()
	tpl, err := reg.Lookup(TypeFinalTotal) // 6 expected fields
	require.NoError(t, err)

	full := &FinalTotalFields{
		TotalEarnings: ptrFloat(15.75),
		BaseFare:      ptrFloat(10.50),
		Tip:           ptrFloat(5.25),
		Distance:      ptrFloat(12.8),
		Duration:      ptrFloat(32),
		Platform:      ptrString("Uber Eats"),
	}
	assert.Equal(t, QualityHigh, AssessQuality(full, tpl))

	half := &FinalTotalFields{
		TotalEarnings: ptrFloat(15.75),
		Tip:           ptrFloat(5.25),
		Distance:      ptrFloat(12.8),
	}
	assert.Equal(t, QualityMedium, AssessQuality(half, tpl))

	sparse := &FinalTotalFields{TotalEarnings: ptrFloat(15.75)}
	assert.Equal(t, QualityLow, AssessQuality(sparse, tpl))

	assert.Equal(t, QualityLow, AssessQuality(&UnknownFields{}, reg.LookupOrUnknown(TypeUnknown)))
}

func TestFieldSpec_HasRange(t *testing.T) {
	assert.True(t, (&FieldSpec{Min: 1, Max: 50}).HasRange())
	assert.False(t, (&FieldSpec{}).HasRange())
	assert.False(t, (&FieldSpec{Min: 5, Max: 5}).HasRange())
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }
func ptrInt(v int) *int           { return &v }
