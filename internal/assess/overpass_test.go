package assess

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/datasource"
	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAmenities struct {
	counts datasource.AmenityCounts
	err    error
	radius float64
}

func (f *fakeAmenities) FetchAmenities(_ context.Context, _ types.Coordinate, radius float64) (*datasource.AmenityCounts, error) {
	f.radius = radius
	if f.err != nil {
		return nil, f.err
	}
	c := f.counts
	return &c, nil
}

func TestScoreAmenities_Empty(t *testing.T) {
	a := ScoreAmenities(datasource.AmenityCounts{})

	assert.Equal(t, 0.0, a.TrafficScore)
	assert.Equal(t, 0.0, a.AccessibilityScore)
	assert.Equal(t, 0.0, a.ResidentialDensity)
	assert.Equal(t, 0.0, a.CommercialValue)
	assert.Equal(t, 600.0, a.InfluenceRadius)
	require.NoError(t, ValidateAssessment(a))
}

func TestScoreAmenities_Busy(t *testing.T) {
	a := ScoreAmenities(datasource.AmenityCounts{
		Shops: 300, Food: 120, Offices: 80, Transit: 40, Residential: 500, MajorRoads: 20,
	})

	assert.Greater(t, a.TrafficScore, 85.0)
	assert.Greater(t, a.AccessibilityScore, 85.0)
	assert.Greater(t, a.ResidentialDensity, 85.0)
	assert.LessOrEqual(t, a.CommercialValue, 100.0)
	assert.Equal(t, 1800.0, a.InfluenceRadius)
	assert.Contains(t, a.Description, "300 shops")
	require.NoError(t, ValidateAssessment(a))
}

func TestScoreAmenities_HalfSaturation(t *testing.T) {
	a := ScoreAmenities(datasource.AmenityCounts{Shops: 20, Food: 20})
	assert.Equal(t, 50.0, a.TrafficScore)
}

func TestOverpassProvider(t *testing.T) {
	src := &fakeAmenities{counts: datasource.AmenityCounts{Shops: 12, Transit: 3, Residential: 30, MajorRoads: 2}}
	p := NewOverpassProvider(src)

	a, err := p.Assess(context.Background(), types.Coordinate{Lat: 31.2304, Lng: 121.4737})
	require.NoError(t, err)
	assert.Equal(t, float64(SurveyRadiusMeters), src.radius)
	assert.Equal(t, types.SourceOverpass, a.Source)
	assert.Equal(t, 900.0, a.InfluenceRadius)
}

func TestOverpassProvider_Error(t *testing.T) {
	boom := errors.New("overpass down")
	p := NewOverpassProvider(&fakeAmenities{err: boom})

	_, err := p.Assess(context.Background(), types.Coordinate{Lat: 31.2304, Lng: 121.4737})
	require.ErrorIs(t, err, boom)
}

func TestAdapter_OverpassFailureIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewAdapter(Config{
		Remote:      NewOverpassProvider(datasource.NewOverpassDataSource(srv.URL, srv.Client())),
		Fallback:    NewSynthetic(geo.Locked(geo.NewSource(3))),
		BreakerName: "overpass-single-attempt",
	})

	start := time.Now()
	got := a.Assess(context.Background(), peoplesSquare)

	assert.Equal(t, types.SourceSynthetic, got.Source)
	assert.Equal(t, int32(1), hits.Load(), "a failed overpass query goes straight to fallback")
	assert.Less(t, time.Since(start), 2*time.Second)
}
