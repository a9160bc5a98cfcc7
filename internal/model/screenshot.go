package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// ScreenshotType identifies what kind of app screen an uploaded image depicts.
type ScreenshotType string

const (
	TypeInitialOffer      ScreenshotType = "initial_offer"
	TypeFinalTotal        ScreenshotType = "final_total"
	TypeDashboardOdometer ScreenshotType = "dashboard_odometer"
	TypeTripSummary       ScreenshotType = "trip_summary"
	TypeNavigation        ScreenshotType = "navigation"
	TypeWeeklySummary     ScreenshotType = "weekly_summary"
	TypeUnknown           ScreenshotType = "unknown"
)

// AllScreenshotTypes returns every registered screenshot type.
func AllScreenshotTypes() []ScreenshotType {
	return []ScreenshotType{
		TypeInitialOffer,
		TypeFinalTotal,
		TypeDashboardOdometer,
		TypeTripSummary,
		TypeNavigation,
		TypeWeeklySummary,
		TypeUnknown,
	}
}

// ParseScreenshotType maps a raw label (e.g. the vision model's own image
// type hint) to a known screenshot type. Unrecognized labels map to unknown.
func ParseScreenshotType(label string) ScreenshotType {
	st := ScreenshotType(label)
	for _, t := range AllScreenshotTypes() {
		if st == t {
			return t
		}
	}
	return TypeUnknown
}

// OCRInput is the payload the vision/OCR layer hands to the pipeline: the
// free-form transcription, a flat numeric-token list, and optionally the
// model's own label for the screenshot type.
type OCRInput struct {
	Text       string    `json:"text"`
	Numbers    []float64 `json:"numbers"`
	ImageType  string    `json:"image_type,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// Quality grades how completely an extraction filled its template.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Extraction is the normalized result of processing one screenshot. It is
// immutable once produced; attaching a new screenshot to a trip produces a
// new combined record rather than mutating existing extractions.
type Extraction struct {
	ID         string         `json:"id"`
	TripID     string         `json:"trip_id,omitempty"`
	Type       ScreenshotType `json:"screenshot_type"`
	Fields     Fields         `json:"-"`
	Detected   []string       `json:"detected_elements"`
	Missing    []string       `json:"missing_elements"`
	Confidence float64        `json:"data_confidence"`
	Quality    Quality        `json:"quality"`
	Source     OCRInput       `json:"ocr_raw"`
	CreatedAt  time.Time      `json:"created_at"`
}

// extractionJSON is the wire shape; Fields round-trips through its raw
// field-name → value form so the union can be reconstructed by type.
type extractionJSON struct {
	ID         string         `json:"id"`
	TripID     string         `json:"trip_id,omitempty"`
	Type       ScreenshotType `json:"screenshot_type"`
	Data       map[string]any `json:"extracted_data"`
	Detected   []string       `json:"detected_elements"`
	Missing    []string       `json:"missing_elements"`
	Confidence float64        `json:"data_confidence"`
	Quality    Quality        `json:"quality"`
	Source     OCRInput       `json:"ocr_raw"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (e Extraction) MarshalJSON() ([]byte, error) {
	aux := extractionJSON{
		ID:         e.ID,
		TripID:     e.TripID,
		Type:       e.Type,
		Detected:   e.Detected,
		Missing:    e.Missing,
		Confidence: e.Confidence,
		Quality:    e.Quality,
		Source:     e.Source,
		CreatedAt:  e.CreatedAt,
	}
	if e.Fields != nil {
		aux.Data = e.Fields.Values()
	}
	return json.Marshal(aux)
}

func (e *Extraction) UnmarshalJSON(data []byte) error {
	var aux extractionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return eris.Wrap(err, "model: unmarshal extraction")
	}
	e.ID = aux.ID
	e.TripID = aux.TripID
	e.Type = aux.Type
	e.Fields = FieldsFromRaw(aux.Type, aux.Data)
	e.Detected = aux.Detected
	e.Missing = aux.Missing
	e.Confidence = aux.Confidence
	e.Quality = aux.Quality
	e.Source = aux.Source
	e.CreatedAt = aux.CreatedAt
	return nil
}
