package assess

import (
	"context"
	"fmt"
	"math"

	"github.com/MeKo-Tech/sitescout/internal/datasource"
	"github.com/MeKo-Tech/sitescout/internal/types"
)

// SurveyRadiusMeters is the radius the Overpass provider counts amenities in.
const SurveyRadiusMeters = 800

// AmenitySource fetches amenity counts around a location.
type AmenitySource interface {
	FetchAmenities(ctx context.Context, center types.Coordinate, radiusMeters float64) (*datasource.AmenityCounts, error)
}

// OverpassProvider derives an assessment from OpenStreetMap amenity counts.
type OverpassProvider struct {
	source AmenitySource
}

// NewOverpassProvider creates a provider backed by source.
func NewOverpassProvider(source AmenitySource) *OverpassProvider {
	return &OverpassProvider{source: source}
}

// Assess implements Provider.
func (o *OverpassProvider) Assess(ctx context.Context, c types.Coordinate) (types.Assessment, error) {
	counts, err := o.source.FetchAmenities(ctx, c, SurveyRadiusMeters)
	if err != nil {
		return types.Assessment{}, fmt.Errorf("amenity survey failed: %w", err)
	}

	a := ScoreAmenities(*counts)
	if err := ValidateAssessment(a); err != nil {
		return types.Assessment{}, err
	}
	return a, nil
}

// ScoreAmenities maps amenity counts to an assessment. Each score saturates
// towards 100 as its count grows past the half-saturation point.
func ScoreAmenities(c datasource.AmenityCounts) types.Assessment {
	traffic := saturate(c.Shops+c.Food, 40)
	access := 0.8*saturate(c.Transit, 6) + 0.2*saturate(c.MajorRoads, 4)
	density := saturate(c.Residential, 60)
	commercial := 0.4*traffic + 0.3*access + 0.2*density + 0.1*saturate(c.Offices, 15)

	// major roads widen the catchment: 600 m up to 1800 m
	radius := 600 + 150*math.Min(float64(c.MajorRoads), 8)

	return types.Assessment{
		TrafficScore:       math.Round(traffic),
		AccessibilityScore: math.Round(access),
		ResidentialDensity: math.Round(density),
		CommercialValue:    math.Round(commercial),
		InfluenceRadius:    radius,
		Description: fmt.Sprintf(
			"OpenStreetMap survey within %d m: %d shops, %d food and service outlets, %d transit stops and %d residential blocks.",
			SurveyRadiusMeters, c.Shops, c.Food, c.Transit, c.Residential,
		),
		Source: types.SourceOverpass,
	}
}

// saturate maps n >= 0 to [0,100): half reaches 50.
func saturate(n int, half float64) float64 {
	if n <= 0 {
		return 0
	}
	return 100 * float64(n) / (float64(n) + half)
}
