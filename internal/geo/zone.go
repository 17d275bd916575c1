package geo

import (
	"math"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/paulmach/orb"
)

const (
	// ZoneVertices is the number of vertices of a synthetic influence zone.
	ZoneVertices = 12

	zoneNoiseMin   = 0.8
	zoneNoiseRange = 0.4
)

// SynthesizeInfluenceZone approximates the area a commercial point affects as an
// irregular ring of ZoneVertices vertices spaced 30° apart around center. Each
// vertex sits at radiusMeters scaled by an independent factor in [0.8, 1.2),
// which mimics the uneven reach of a road network. The ring is closed
// implicitly: the first vertex is not repeated.
//
// The result is stochastic; pass a deterministic Source for repeatable output.
func SynthesizeInfluenceZone(rng Source, center types.Coordinate, radiusMeters float64) []types.Coordinate {
	if rng == nil || !center.Valid() || !(radiusMeters > 0) || math.IsInf(radiusMeters, 0) {
		return nil
	}

	step := 360.0 / ZoneVertices
	ring := make([]types.Coordinate, 0, ZoneVertices)
	for i := 0; i < ZoneVertices; i++ {
		rad := float64(i) * step * math.Pi / 180

		noise := zoneNoiseMin + rng.Float64()*zoneNoiseRange
		r := radiusMeters * noise

		ring = append(ring, Offset(center, r*math.Cos(rad), r*math.Sin(rad)))
	}

	return ring
}

// ZonePolygon converts an open zone ring into a closed orb.Polygon.
func ZonePolygon(ring []types.Coordinate) orb.Polygon {
	if len(ring) == 0 {
		return nil
	}

	r := make(orb.Ring, 0, len(ring)+1)
	for _, c := range ring {
		r = append(r, c.Point())
	}
	r = append(r, ring[0].Point())

	return orb.Polygon{r}
}
