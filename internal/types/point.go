package types

import (
	"fmt"
	"math"
)

// PointID identifies a CommercialPoint for the lifetime of a session.
type PointID string

// Category is the intended use of a commercial point.
type Category string

const (
	CategoryRetail Category = "retail"
	CategoryPark   Category = "park"
	CategoryOffice Category = "office"
	CategoryMixed  Category = "mixed"
)

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryRetail, CategoryPark, CategoryOffice, CategoryMixed:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// AssessmentSource names the provider that produced an assessment.
type AssessmentSource string

const (
	SourceGemini    AssessmentSource = "gemini"
	SourceOverpass  AssessmentSource = "overpass"
	SourceSynthetic AssessmentSource = "synthetic"
)

// Assessment is the commercial-viability evaluation of a single location.
// The json names match the wire format of the remote analysis service.
type Assessment struct {
	TrafficScore       float64 `json:"trafficScore" validate:"gte=0,lte=100"`
	AccessibilityScore float64 `json:"accessibilityScore" validate:"gte=0,lte=100"`
	ResidentialDensity float64 `json:"residentialDensity" validate:"gte=0,lte=100"`
	CommercialValue    float64 `json:"commercialValue" validate:"gte=0,lte=100"`
	InfluenceRadius    float64 `json:"influenceRadius" validate:"gt=0"`
	Description        string  `json:"description" validate:"required"`

	Source AssessmentSource `json:"source,omitempty" validate:"-"`
}

// CombinedScore is the rounded mean of traffic, commercial value and accessibility.
func (a Assessment) CombinedScore() int {
	return int(math.Round((a.TrafficScore + a.CommercialValue + a.AccessibilityScore) / 3))
}

// CommercialPoint is a location placed by the analyst.
type CommercialPoint struct {
	ID         PointID     `json:"id"`
	Position   Coordinate  `json:"position"`
	Label      string      `json:"label"`
	Category   Category    `json:"category"`
	Assessment *Assessment `json:"assessment,omitempty"` // nil until the analysis resolves
}

// Assessed reports whether the point has received its assessment.
func (p CommercialPoint) Assessed() bool {
	return p.Assessment != nil
}

// Clone returns a copy that shares no memory with p.
func (p CommercialPoint) Clone() CommercialPoint {
	out := p
	if p.Assessment != nil {
		a := *p.Assessment
		out.Assessment = &a
	}
	return out
}

// MeasurementSegment is the two-endpoint construct of the measure tool.
type MeasurementSegment struct {
	Start          Coordinate  `json:"start"`
	End            *Coordinate `json:"end,omitempty"`
	DistanceMeters float64     `json:"distanceMeters"`
}

// Complete reports whether both endpoints are set.
func (m MeasurementSegment) Complete() bool {
	return m.End != nil
}

// Clone returns a copy that shares no memory with m.
func (m MeasurementSegment) Clone() MeasurementSegment {
	out := m
	if m.End != nil {
		e := *m.End
		out.End = &e
	}
	return out
}

// HeatmapSample is one synthetic density reading.
type HeatmapSample struct {
	Position  Coordinate `json:"position"`
	Intensity float64    `json:"intensity"` // [0,1)
}

// ToolMode is the interpretation applied to a surface click.
type ToolMode string

const (
	ToolSelect     ToolMode = "select"
	ToolPlacePoint ToolMode = "placePoint"
	ToolMeasure    ToolMode = "measure"
)

// ParseToolMode validates a tool mode name.
func ParseToolMode(s string) (ToolMode, error) {
	switch m := ToolMode(s); m {
	case ToolSelect, ToolPlacePoint, ToolMeasure:
		return m, nil
	default:
		return "", fmt.Errorf("unknown tool mode %q", s)
	}
}
