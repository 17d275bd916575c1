package geo

import (
	"sync"
	"testing"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertWithinEnvelope(t *testing.T, center types.Coordinate, samples []types.HeatmapSample) {
	t.Helper()

	env := HeatmapEnvelope(center)
	for i, s := range samples {
		assert.True(t, env.Contains(s.Position), "sample %d at %s outside %s", i, s.Position, env)
		assert.GreaterOrEqual(t, s.Intensity, 0.0, "sample %d", i)
		assert.Less(t, s.Intensity, 1.0, "sample %d", i)
	}
}

func TestSynthesizeHeatmap(t *testing.T) {
	rng := NewSource(2024)

	for _, n := range []int{1, 17, 300, 2000} {
		samples := SynthesizeHeatmap(rng, shanghai, n)
		require.Len(t, samples, n)
		assertWithinEnvelope(t, shanghai, samples)
	}
}

func TestSynthesizeHeatmap_Extremes(t *testing.T) {
	low := SynthesizeHeatmap(&sequenceSource{values: []float64{0}}, shanghai, 1)
	require.Len(t, low, 1)
	assert.InDelta(t, shanghai.Lat-HeatmapLatSpan, low[0].Position.Lat, 1e-12)
	assert.InDelta(t, shanghai.Lng-HeatmapLngSpan, low[0].Position.Lng, 1e-12)
	assert.Equal(t, 0.0, low[0].Intensity)
}

func TestSynthesizeHeatmap_Empty(t *testing.T) {
	rng := NewSource(1)
	assert.Empty(t, SynthesizeHeatmap(rng, shanghai, 0))
	assert.Empty(t, SynthesizeHeatmap(rng, shanghai, -3))
	assert.Empty(t, SynthesizeHeatmap(nil, shanghai, 10))
}

func TestSynthesizeHeatmapField(t *testing.T) {
	samples := SynthesizeHeatmapField(NewSource(5), 1337, shanghai, 500)
	require.Len(t, samples, 500)
	assertWithinEnvelope(t, shanghai, samples)

	// the noise field is fixed by the seed
	again := SynthesizeHeatmapField(NewSource(5), 1337, shanghai, 500)
	assert.Equal(t, samples, again)
}

func TestClampIntensity(t *testing.T) {
	assert.Equal(t, 0.0, clampIntensity(-0.2))
	assert.Equal(t, 0.25, clampIntensity(0.25))
	assert.Less(t, clampIntensity(1.3), 1.0)
	assert.Less(t, clampIntensity(1.0), 1.0)
}

func TestLockedSource_Concurrent(t *testing.T) {
	src := Locked(NewSource(11))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := src.Float64()
				if v < 0 || v >= 1 {
					t.Errorf("value out of range: %f", v)
				}
			}
		}()
	}
	wg.Wait()
}
