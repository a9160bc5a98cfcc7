package model

import (
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned by Registry.Lookup for unregistered
// screenshot types. Callers treat it as non-fatal and fall back to the
// permissive unknown template.
var ErrUnknownTemplate = eris.New("model: unknown screenshot template")

// Semantic names the extraction strategy used for a field.
type Semantic string

const (
	SemanticMoney    Semantic = "money"
	SemanticDistance Semantic = "distance"
	SemanticDuration Semantic = "duration"
	SemanticCount    Semantic = "count"
	SemanticText     Semantic = "text"
	SemanticPlatform Semantic = "platform"
)

// FieldSpec describes one expected field of a screenshot template: its
// extraction semantic, the keywords that anchor it in OCR text, and the
// admissible numeric range used by the positional fallback. Min == Max
// disables the fallback. The range is exclusive on both ends.
type FieldSpec struct {
	Name     string   `yaml:"name"`
	Semantic Semantic `yaml:"semantic"`
	Keywords []string `yaml:"keywords"`
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
	Required bool     `yaml:"required"`

	// Compiled at registry construction; one pattern pair per keyword.
	after  []*regexp.Regexp
	before []*regexp.Regexp
	text   []*regexp.Regexp
}

// AfterPatterns returns the compiled keyword-then-number patterns.
func (f *FieldSpec) AfterPatterns() []*regexp.Regexp { return f.after }

// BeforePatterns returns the compiled number-then-keyword patterns.
func (f *FieldSpec) BeforePatterns() []*regexp.Regexp { return f.before }

// TextPatterns returns the compiled keyword-then-rest-of-line patterns.
func (f *FieldSpec) TextPatterns() []*regexp.Regexp { return f.text }

// HasRange reports whether the positional fallback range is enabled.
func (f *FieldSpec) HasRange() bool { return f.Max > f.Min }

// Template is the static schema for one screenshot type. Immutable after
// registry construction.
type Template struct {
	Type   ScreenshotType
	Fields []FieldSpec
}

// Expected returns the expected field names in template order.
func (t *Template) Expected() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// Required returns the required field names (a subset of Expected).
func (t *Template) Required() []string {
	var names []string
	for _, f := range t.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Registry is an immutable template collection built once at startup and
// passed explicitly to the classifier and normalizer.
type Registry struct {
	byType map[ScreenshotType]*Template
}

// Lookup returns the template for the given screenshot type, or
// ErrUnknownTemplate when none is registered.
func (r *Registry) Lookup(t ScreenshotType) (*Template, error) {
	tpl, ok := r.byType[t]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownTemplate, "type %q", t)
	}
	return tpl, nil
}

// LookupOrUnknown returns the template for the given type, falling back to
// the permissive unknown template for unregistered types.
func (r *Registry) LookupOrUnknown(t ScreenshotType) *Template {
	if tpl, err := r.Lookup(t); err == nil {
		return tpl
	}
	return r.byType[TypeUnknown]
}

// AssessQuality grades extracted fields against a template by the ratio of
// expected fields present: HIGH at ≥0.8, MEDIUM at ≥0.5, else LOW. Pure
// function of the template and the data.
func AssessQuality(fields Fields, tpl *Template) Quality {
	expected := tpl.Expected()
	if len(expected) == 0 {
		return QualityLow
	}
	values := fields.Values()
	present := 0
	for _, name := range expected {
		if _, ok := values[name]; ok {
			present++
		}
	}
	ratio := float64(present) / float64(len(expected))
	switch {
	case ratio >= 0.8:
		return QualityHigh
	case ratio >= 0.5:
		return QualityMedium
	default:
		return QualityLow
	}
}

// templateOverride is the YAML shape for extending a built-in template's
// keyword anchors and fallback ranges.
type templateOverride struct {
	Type   ScreenshotType `yaml:"type"`
	Fields []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
		Min      *float64 `yaml:"min"`
		Max      *float64 `yaml:"max"`
	} `yaml:"fields"`
}

// NewRegistry builds the default template registry. Optional YAML override
// documents extend keyword lists and fallback ranges of built-in fields;
// overrides never add fields or change required sets.
func NewRegistry(overrides ...[]byte) (*Registry, error) {
	templates := defaultTemplates()

	for _, doc := range overrides {
		var ovs []templateOverride
		if err := yaml.Unmarshal(doc, &ovs); err != nil {
			return nil, eris.Wrap(err, "model: parse template overrides")
		}
		for _, ov := range ovs {
			tpl, ok := templates[ov.Type]
			if !ok {
				return nil, eris.Wrapf(ErrUnknownTemplate, "override for type %q", ov.Type)
			}
			for _, fo := range ov.Fields {
				for i := range tpl.Fields {
					if tpl.Fields[i].Name != fo.Name {
						continue
					}
					tpl.Fields[i].Keywords = append(tpl.Fields[i].Keywords, fo.Keywords...)
					if fo.Min != nil {
						tpl.Fields[i].Min = *fo.Min
					}
					if fo.Max != nil {
						tpl.Fields[i].Max = *fo.Max
					}
				}
			}
		}
	}

	for _, tpl := range templates {
		for i := range tpl.Fields {
			compileFieldPatterns(&tpl.Fields[i])
		}
	}

	return &Registry{byType: templates}, nil
}

// MustNewRegistry builds the default registry without overrides; the
// built-in definitions always compile.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// compileFieldPatterns pre-compiles the keyword-anchored patterns for one
// field, mirroring how validation regexes are compiled at registry load.
func compileFieldPatterns(f *FieldSpec) {
	for _, kw := range f.Keywords {
		quoted := regexp.QuoteMeta(kw)
		if f.Semantic == SemanticText {
			f.text = append(f.text,
				regexp.MustCompile(`(?i)`+quoted+`\s*[:\-]\s*([^\n]+)`))
			continue
		}
		// Number following the keyword, e.g. "Distance: 8.2".
		f.after = append(f.after,
			regexp.MustCompile(`(?i)`+quoted+`[^0-9$\n]{0,12}\$?(\d[\d,]*(?:\.\d+)?)`))
		// Number preceding the keyword, e.g. "8.2 miles".
		f.before = append(f.before,
			regexp.MustCompile(`(?i)\$?(\d[\d,]*(?:\.\d+)?)\s*`+quoted+`\b`))
	}
}

func defaultTemplates() map[ScreenshotType]*Template {
	return map[ScreenshotType]*Template{
		TypeInitialOffer: {
			Type: TypeInitialOffer,
			Fields: []FieldSpec{
				{Name: FieldEstimatedFare, Semantic: SemanticMoney, Required: true,
					Keywords: []string{"estimated fare", "fare", "offer", "guaranteed"}, Min: 2, Max: 150},
				{Name: FieldDistance, Semantic: SemanticDistance, Required: true,
					Keywords: []string{"distance", "miles", "mi"}, Min: 1, Max: 50},
				{Name: FieldEstimatedTip, Semantic: SemanticMoney,
					Keywords: []string{"tip", "incl. tip", "includes tip"}, Min: 2, Max: 15},
				{Name: FieldEstimatedTime, Semantic: SemanticDuration,
					Keywords: []string{"time", "est. time"}, Min: 3, Max: 120},
				{Name: FieldPickupLocation, Semantic: SemanticText,
					Keywords: []string{"pickup", "pick up", "from"}},
				{Name: FieldDropoffLocation, Semantic: SemanticText,
					Keywords: []string{"dropoff", "drop-off", "drop off", "deliver to"}},
				{Name: FieldPlatform, Semantic: SemanticPlatform},
			},
		},
		TypeFinalTotal: {
			Type: TypeFinalTotal,
			Fields: []FieldSpec{
				{Name: FieldTotalEarnings, Semantic: SemanticMoney, Required: true,
					Keywords: []string{"you earned", "total earnings", "earnings", "total", "payout"}, Min: 3, Max: 200},
				{Name: FieldDistance, Semantic: SemanticDistance, Required: true,
					Keywords: []string{"distance", "miles", "mi"}, Min: 1, Max: 50},
				{Name: FieldTip, Semantic: SemanticMoney,
					Keywords: []string{"tip"}, Min: 2, Max: 15},
				{Name: FieldBaseFare, Semantic: SemanticMoney,
					Keywords: []string{"base fare", "fare", "base"}, Min: 2, Max: 100},
				{Name: FieldDuration, Semantic: SemanticDuration,
					Keywords: []string{"duration", "time"}, Min: 3, Max: 180},
				{Name: FieldPlatform, Semantic: SemanticPlatform},
			},
		},
		TypeDashboardOdometer: {
			Type: TypeDashboardOdometer,
			Fields: []FieldSpec{
				{Name: FieldOdometerReading, Semantic: SemanticDistance, Required: true,
					Keywords: []string{"odometer", "odo", "mileage"}, Min: 100, Max: 999999},
			},
		},
		TypeTripSummary: {
			Type: TypeTripSummary,
			Fields: []FieldSpec{
				{Name: FieldTotalTrips, Semantic: SemanticCount, Required: true,
					Keywords: []string{"trips", "deliveries", "orders"}, Min: 1, Max: 50},
				{Name: FieldTotalEarnings, Semantic: SemanticMoney, Required: true,
					Keywords: []string{"earnings", "earned", "total"}, Min: 10, Max: 1000},
				{Name: FieldTotalDistance, Semantic: SemanticDistance,
					Keywords: []string{"miles", "distance"}, Min: 5, Max: 500},
				{Name: FieldOnlineTime, Semantic: SemanticDuration,
					Keywords: []string{"online", "active"}},
			},
		},
		TypeNavigation: {
			Type: TypeNavigation,
			Fields: []FieldSpec{
				{Name: FieldDistance, Semantic: SemanticDistance, Required: true,
					Keywords: []string{"miles", "mi"}, Min: 1, Max: 50},
				{Name: FieldETA, Semantic: SemanticDuration,
					Keywords: []string{"eta", "arrive in", "min"}, Min: 1, Max: 120},
				{Name: FieldDestination, Semantic: SemanticText,
					Keywords: []string{"destination", "arriving at", "to"}},
			},
		},
		TypeWeeklySummary: {
			Type: TypeWeeklySummary,
			Fields: []FieldSpec{
				{Name: FieldTotalTrips, Semantic: SemanticCount, Required: true,
					Keywords: []string{"trips", "deliveries", "orders"}, Min: 1, Max: 300},
				{Name: FieldTotalEarnings, Semantic: SemanticMoney, Required: true,
					Keywords: []string{"earnings", "earned", "total"}, Min: 20, Max: 5000},
				{Name: FieldTotalDistance, Semantic: SemanticDistance,
					Keywords: []string{"miles", "distance"}, Min: 10, Max: 2000},
				{Name: FieldOnlineTime, Semantic: SemanticDuration,
					Keywords: []string{"online", "active"}},
			},
		},
		TypeUnknown: {
			Type:   TypeUnknown,
			Fields: nil,
		},
	}
}
