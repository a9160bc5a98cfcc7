package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/model"
)

// classifyRule maps text markers to a screenshot type. Rules are checked in
// order; the first rule with a matching marker wins.
type classifyRule struct {
	screenshotType model.ScreenshotType
	markers        []string
}

// classifyRules orders the text heuristics from most to least distinctive.
// Weekly markers come before daily-summary markers because weekly screens
// often also contain the words "trips" and "earnings".
var classifyRules = []classifyRule{
	{model.TypeWeeklySummary, []string{"this week", "weekly summary", "weekly earnings", "week of"}},
	{model.TypeDashboardOdometer, []string{"odometer", "odo ", "trip a", "trip b"}},
	{model.TypeFinalTotal, []string{"you earned", "trip total", "payment breakdown", "total earnings", "payout"}},
	{model.TypeInitialOffer, []string{"accept", "decline", "estimated fare", "new offer", "pickup in"}},
	{model.TypeTripSummary, []string{"today's summary", "trips today", "daily summary", "today you"}},
	{model.TypeNavigation, []string{"eta", "arriving", "rerouting", "turn left", "turn right"}},
}

// ClassifyScreenshot determines the screenshot type for an OCR payload. The
// vision model's own label wins when it names a known type; otherwise the
// transcription is scanned for distinctive markers. Unmatchable payloads
// are reported as unknown, never rejected.
func ClassifyScreenshot(in model.OCRInput) model.ScreenshotType {
	if in.ImageType != "" {
		if t := model.ParseScreenshotType(in.ImageType); t != model.TypeUnknown {
			return t
		}
	}

	lower := strings.ToLower(NormalizeOCRText(in.Text))
	for _, rule := range classifyRules {
		for _, marker := range rule.markers {
			if strings.Contains(lower, marker) {
				zap.L().Debug("classify: matched text marker",
					zap.String("marker", marker),
					zap.String("screenshot_type", string(rule.screenshotType)),
				)
				return rule.screenshotType
			}
		}
	}
	return model.TypeUnknown
}
