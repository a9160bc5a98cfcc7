package vision

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gigsight/trips-cli/internal/model"
)

// ParseOCRResponse parses the model's JSON reply leniently: markdown fences
// and surrounding prose are stripped before unmarshaling, since vision
// models occasionally wrap their output despite instructions.
func ParseOCRResponse(raw string) (*model.OCRInput, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, eris.Errorf("vision: no JSON object in response: %.80s", raw)
	}

	var in model.OCRInput
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &in); err != nil {
		return nil, eris.Wrap(err, "vision: unmarshal OCR payload")
	}
	return &in, nil
}
