package pipeline

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/model"
)

// maxConfidence caps automated extraction confidence; only a manual
// correction can assert certainty.
const maxConfidence = 0.95

// Normalize turns one OCR payload into a typed extraction: classify the
// screenshot, parse its template fields, and grade the result. Never
// returns an error; a payload nothing matches becomes a low-quality
// unknown extraction.
func Normalize(in model.OCRInput, reg *model.Registry) model.Extraction {
	if len(in.Numbers) == 0 && in.Text != "" {
		in.Numbers = ScanNumbers(in.Text)
	}

	screenshotType := ClassifyScreenshot(in)
	tpl := reg.LookupOrUnknown(screenshotType)

	raw := ParseFields(in, tpl)
	fields := model.FieldsFromRaw(screenshotType, raw)

	detected := make([]string, 0, len(raw))
	var missing []string
	for _, name := range tpl.Expected() {
		if _, ok := raw[name]; ok {
			detected = append(detected, name)
		} else {
			missing = append(missing, name)
		}
	}
	sort.Strings(detected)

	ext := model.Extraction{
		ID:         uuid.NewString(),
		Type:       screenshotType,
		Fields:     fields,
		Detected:   detected,
		Missing:    missing,
		Confidence: computeConfidence(detected, tpl),
		Quality:    model.AssessQuality(fields, tpl),
		Source:     in,
		CreatedAt:  time.Now().UTC(),
	}

	zap.L().Debug("normalized screenshot",
		zap.String("screenshot_type", string(screenshotType)),
		zap.Int("detected", len(detected)),
		zap.Int("missing", len(missing)),
		zap.Float64("confidence", ext.Confidence),
	)
	return ext
}

// computeConfidence scores an extraction by the share of the template's
// required fields it detected, with a small bonus for detecting anything at
// all. Detecting more fields never lowers the score; the ceiling is
// maxConfidence.
func computeConfidence(detected []string, tpl *model.Template) float64 {
	required := tpl.Required()

	var base float64
	if len(required) == 0 {
		if len(detected) > 0 {
			base = 0.5
		}
	} else {
		set := make(map[string]struct{}, len(detected))
		for _, name := range detected {
			set[name] = struct{}{}
		}
		hit := 0
		for _, name := range required {
			if _, ok := set[name]; ok {
				hit++
			}
		}
		base = float64(hit) / float64(len(required))
	}

	if len(detected) > 0 {
		base += 0.1
	}
	if base > maxConfidence {
		return maxConfidence
	}
	if base < 0 {
		return 0
	}
	return base
}
