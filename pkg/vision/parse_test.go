package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigsight/trips-cli/internal/model"
)

func TestParseOCRResponse(t *testing.T) {
	raw := `{"text": "Estimated fare: $12.50", "numbers": [12.50, 8.2], "image_type": "initial_offer", "confidence": 0.9}`

	got, err := ParseOCRResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Estimated fare: $12.50", got.Text)
	assert.Equal(t, []float64{12.50, 8.2}, got.Numbers)
	assert.Equal(t, "initial_offer", got.ImageType)
	assert.Equal(t, 0.9, got.Confidence)
}

func TestParseOCRResponse_MarkdownFences(t *testing.T) {
	raw := "```json\n{\"text\": \"You earned $15.75\", \"numbers\": [15.75]}\n```"

	got, err := ParseOCRResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "You earned $15.75", got.Text)
}

func TestParseOCRResponse_SurroundingProse(t *testing.T) {
	raw := `Here is the extracted data:
{"text": "Odometer 48,352", "numbers": [48352], "image_type": "dashboard_odometer"}
Let me know if you need anything else.`

	got, err := ParseOCRResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{48352}, got.Numbers)
	assert.Equal(t, string(model.TypeDashboardOdometer), got.ImageType)
}

func TestParseOCRResponse_NoJSON(t *testing.T) {
	_, err := ParseOCRResponse("I could not read this screenshot.")
	assert.Error(t, err)
}

func TestParseOCRResponse_MalformedJSON(t *testing.T) {
	_, err := ParseOCRResponse(`{"text": "oops", "numbers": [`)
	assert.Error(t, err)
}
