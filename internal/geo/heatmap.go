package geo

import (
	"math"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/aquilax/go-perlin"
)

// Heatmap envelope half-extents around the session center (roughly 5 km).
const (
	HeatmapLatSpan = 0.05
	HeatmapLngSpan = 0.06
)

// maxIntensity is the largest float64 below 1, keeping intensities in [0,1).
var maxIntensity = math.Nextafter(1, 0)

// HeatmapEnvelope returns the box all synthetic heatmap samples fall in.
func HeatmapEnvelope(center types.Coordinate) types.BoundingBox {
	return types.BoundsAround(center, HeatmapLatSpan, HeatmapLngSpan)
}

// SynthesizeHeatmap draws count samples uniformly inside HeatmapEnvelope(center),
// each with an independent uniform intensity in [0,1).
func SynthesizeHeatmap(rng Source, center types.Coordinate, count int) []types.HeatmapSample {
	if rng == nil || count <= 0 || !center.Valid() {
		return nil
	}

	samples := make([]types.HeatmapSample, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, types.HeatmapSample{
			Position:  samplePosition(rng, center),
			Intensity: rng.Float64(),
		})
	}
	return samples
}

// SynthesizeHeatmapField places samples like SynthesizeHeatmap but derives the
// intensity from 2D perlin noise over the envelope, so nearby samples have
// similar density. seed fixes the noise field; rng drives the positions.
func SynthesizeHeatmapField(rng Source, seed int64, center types.Coordinate, count int) []types.HeatmapSample {
	if rng == nil || count <= 0 || !center.Valid() {
		return nil
	}

	// alpha 2.0, beta 2.0, 3 octaves: smooth blobs a few cells across
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)
	env := HeatmapEnvelope(center)

	const cells = 4.0

	samples := make([]types.HeatmapSample, 0, count)
	for i := 0; i < count; i++ {
		pos := samplePosition(rng, center)

		nx := (pos.Lng - env.MinLon) / env.Width() * cells
		ny := (pos.Lat - env.MinLat) / env.Height() * cells

		// Noise2D is roughly within [-1, 1]
		v := (p.Noise2D(nx, ny) + 1) / 2

		samples = append(samples, types.HeatmapSample{
			Position:  pos,
			Intensity: clampIntensity(v),
		})
	}
	return samples
}

func samplePosition(rng Source, center types.Coordinate) types.Coordinate {
	return types.Coordinate{
		Lat: center.Lat + (rng.Float64()-0.5)*2*HeatmapLatSpan,
		Lng: center.Lng + (rng.Float64()-0.5)*2*HeatmapLngSpan,
	}
}

func clampIntensity(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > maxIntensity {
		return maxIntensity
	}
	return v
}
