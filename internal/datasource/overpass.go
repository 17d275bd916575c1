package datasource

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/MeKo-Tech/sitescout/internal/types"
)

// DefaultOverpassEndpoint is the public Overpass API interpreter.
const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// OverpassDataSource counts OSM amenities around a location via the Overpass API
type OverpassDataSource struct {
	client overpass.Client
}

// NewOverpassDataSource creates a new Overpass data source.
// A nil httpClient uses http.DefaultClient.
func NewOverpassDataSource(endpoint string, httpClient *http.Client) *OverpassDataSource {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// Create client (rate limited to 1 concurrent request)
	client := overpass.NewWithSettings(
		endpoint,
		1, // Only 1 parallel request (API etiquette)
		httpClient,
	)
	// A failed query is reported at once; callers decide what to do next.
	client.SetRetryConfig(overpass.RetryConfig{MaxRetries: 0})

	return &OverpassDataSource{
		client: client,
	}
}

// FetchAmenities queries everything relevant to a commercial assessment within
// radiusMeters of center and returns the per-category counts.
func (ds *OverpassDataSource) FetchAmenities(ctx context.Context, center types.Coordinate, radiusMeters float64) (*AmenityCounts, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("invalid coordinate %s", center)
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %f", radiusMeters)
	}

	query := ds.buildAroundQuery(center, radiusMeters)

	result, err := ds.client.QueryContext(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("overpass query aborted: %w", ctxErr)
		}
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	counts := CountAmenities(&result)
	counts.Center = center
	counts.RadiusMeters = radiusMeters
	counts.FetchedAt = time.Now()

	return &counts, nil
}

// buildAroundQuery creates an Overpass QL query for all elements within the
// radius that feed an assessment. Only tags are requested; geometry is not
// needed for counting.
func (ds *OverpassDataSource) buildAroundQuery(center types.Coordinate, radiusMeters float64) string {
	around := fmt.Sprintf("around:%.0f,%.6f,%.6f", radiusMeters, center.Lat, center.Lng)
	return fmt.Sprintf(`
[out:json][timeout:25];
(
  node["shop"](%[1]s);
  way["shop"](%[1]s);
  node["amenity"~"restaurant|cafe|fast_food|bank|pharmacy"](%[1]s);
  node["office"](%[1]s);
  way["office"](%[1]s);
  node["public_transport"](%[1]s);
  node["highway"="bus_stop"](%[1]s);
  node["railway"~"station|subway_entrance|tram_stop"](%[1]s);
  way["building"~"residential|apartments|house"](%[1]s);
  way["landuse"="residential"](%[1]s);
  way["highway"~"primary|secondary|tertiary|trunk"](%[1]s);
);
out tags;
`, around)
}
