package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/gigsight/trips-cli/internal/model"
)

// FieldExtractor extracts one typed value from OCR output for a single
// field semantic. Implementations never fail: an unextractable field yields
// (nil, false) and the caller records it as missing.
type FieldExtractor interface {
	Extract(text string, numbers []float64, spec *model.FieldSpec) (any, bool)
}

// extractors maps each field semantic to its strategy. The map is
// read-only after init; swapping a strategy is a test-time concern.
var extractors = map[model.Semantic]FieldExtractor{
	model.SemanticMoney:    moneyExtractor{},
	model.SemanticDistance: numericExtractor{},
	model.SemanticDuration: durationExtractor{},
	model.SemanticCount:    countExtractor{},
	model.SemanticText:     textExtractor{},
	model.SemanticPlatform: platformExtractor{},
}

// ocrFold canonicalizes vision output before parsing: full-width digits and
// compatibility forms fold to NFKC so the keyword patterns see uniform text.
var ocrFold = transform.Chain(width.Fold, norm.NFKC)

// NormalizeOCRText folds OCR text into a canonical form for parsing.
func NormalizeOCRText(s string) string {
	out, _, err := transform.String(ocrFold, s)
	if err != nil {
		return s
	}
	return out
}

// ParseFields runs every field spec of the template against the OCR input
// and returns the successfully extracted values keyed by field name. Absent
// fields are simply not present in the result; parsing never errors.
func ParseFields(in model.OCRInput, tpl *model.Template) map[string]any {
	text := NormalizeOCRText(in.Text)
	out := make(map[string]any, len(tpl.Fields))
	for i := range tpl.Fields {
		spec := &tpl.Fields[i]
		ex, ok := extractors[spec.Semantic]
		if !ok {
			continue
		}
		if v, ok := ex.Extract(text, in.Numbers, spec); ok {
			out[spec.Name] = v
		}
	}
	return out
}

// parseNumber strips currency markers and thousands separators and parses
// the remainder.
func parseNumber(token string) (float64, bool) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(token), "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// keywordNumber runs the spec's keyword-anchored patterns (number after the
// keyword first, then number before it) and returns the first raw token hit
// plus the offset just past it in the text.
func keywordNumber(text string, spec *model.FieldSpec) (string, int, bool) {
	for _, re := range spec.AfterPatterns() {
		if m := re.FindStringSubmatchIndex(text); m != nil {
			return text[m[2]:m[3]], m[3], true
		}
	}
	for _, re := range spec.BeforePatterns() {
		if m := re.FindStringSubmatchIndex(text); m != nil {
			return text[m[2]:m[3]], m[3], true
		}
	}
	return "", 0, false
}

// rangeFallback picks the first number inside the spec's exclusive
// admissible range from the flat token list.
func rangeFallback(numbers []float64, spec *model.FieldSpec) (float64, bool) {
	if !spec.HasRange() {
		return 0, false
	}
	for _, n := range numbers {
		if n > spec.Min && n < spec.Max {
			return n, true
		}
	}
	return 0, false
}

// moneyExtractor handles currency fields. A keyword-matched token that
// fails to parse yields 0 rather than nil so downstream arithmetic stays
// defined; only the absence of any candidate yields a miss.
type moneyExtractor struct{}

func (moneyExtractor) Extract(text string, numbers []float64, spec *model.FieldSpec) (any, bool) {
	if token, _, ok := keywordNumber(text, spec); ok {
		if v, parsed := parseNumber(token); parsed {
			return v, true
		}
		return float64(0), true
	}
	if v, ok := rangeFallback(numbers, spec); ok {
		return v, true
	}
	return nil, false
}

// numericExtractor handles plain numeric fields (distances, odometer
// readings): keyword anchor first, range fallback second, nil on a miss.
type numericExtractor struct{}

func (numericExtractor) Extract(text string, numbers []float64, spec *model.FieldSpec) (any, bool) {
	if token, _, ok := keywordNumber(text, spec); ok {
		if v, parsed := parseNumber(token); parsed {
			return v, true
		}
	}
	if v, ok := rangeFallback(numbers, spec); ok {
		return v, true
	}
	return nil, false
}

// durationUnitRe matches a number with an explicit time unit anywhere in
// the text, used when no keyword anchors the field.
var durationUnitRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(min|mins|minutes|hr|hrs|hours|h)\b`)

// hourAfterRe detects an hour unit immediately following a keyword-matched
// number, so "Time: 1.5 hrs" converts instead of reading as 1.5 minutes.
var hourAfterRe = regexp.MustCompile(`(?i)^\s*(?:hr|hrs|hours|h)\b`)

// durationExtractor returns durations in minutes.
type durationExtractor struct{}

func (durationExtractor) Extract(text string, numbers []float64, spec *model.FieldSpec) (any, bool) {
	if token, end, ok := keywordNumber(text, spec); ok {
		if v, parsed := parseNumber(token); parsed {
			if hourAfterRe.MatchString(text[end:]) {
				v *= 60
			}
			return v, true
		}
	}
	if m := durationUnitRe.FindStringSubmatch(text); m != nil {
		if v, parsed := parseNumber(m[1]); parsed {
			if strings.HasPrefix(strings.ToLower(m[2]), "h") {
				v *= 60
			}
			return v, true
		}
	}
	if v, ok := rangeFallback(numbers, spec); ok {
		return v, true
	}
	return nil, false
}

// countExtractor handles integer counters; fractional candidates are
// rejected rather than truncated.
type countExtractor struct{}

func (countExtractor) Extract(text string, numbers []float64, spec *model.FieldSpec) (any, bool) {
	if token, _, ok := keywordNumber(text, spec); ok {
		if v, parsed := parseNumber(token); parsed && v == float64(int(v)) {
			return int(v), true
		}
	}
	if spec.HasRange() {
		for _, n := range numbers {
			if n > spec.Min && n < spec.Max && n == float64(int(n)) {
				return int(n), true
			}
		}
	}
	return nil, false
}

// textExtractor captures the remainder of the line after a keyword anchor,
// e.g. "Pickup: Downtown Restaurant".
type textExtractor struct{}

func (textExtractor) Extract(text string, _ []float64, spec *model.FieldSpec) (any, bool) {
	for _, re := range spec.TextPatterns() {
		if m := re.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v, true
			}
		}
	}
	return nil, false
}

// knownPlatforms lists gig platforms in detection order; more specific
// names come first so "Uber Eats" is not reported as "Uber".
var knownPlatforms = []string{
	"Uber Eats",
	"Uber",
	"Lyft",
	"DoorDash",
	"Grubhub",
	"Instacart",
	"Postmates",
	"Amazon Flex",
	"Spark",
}

// platformExtractor scans for a known platform name anywhere in the text.
type platformExtractor struct{}

func (platformExtractor) Extract(text string, _ []float64, _ *model.FieldSpec) (any, bool) {
	lower := strings.ToLower(text)
	for _, p := range knownPlatforms {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return nil, false
}

var numberTokenRe = regexp.MustCompile(`\$?\d[\d,]*(?:\.\d+)?`)

// ScanNumbers extracts the flat numeric-token list from raw text, for
// payloads where the vision layer supplied no numbers array.
func ScanNumbers(text string) []float64 {
	var out []float64
	for _, tok := range numberTokenRe.FindAllString(NormalizeOCRText(text), -1) {
		if v, ok := parseNumber(tok); ok {
			out = append(out, v)
		}
	}
	return out
}
