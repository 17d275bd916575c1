// Package geojson projects session collections onto GeoJSON
// FeatureCollections for the map surface.
package geojson

import (
	"fmt"

	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/MeKo-Tech/sitescout/internal/interaction"
	"github.com/MeKo-Tech/sitescout/internal/types"
	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LayerType names the overlay a collection belongs to.
type LayerType string

const (
	LayerPoints      LayerType = "points"
	LayerZones       LayerType = "zones"
	LayerHeatmap     LayerType = "heatmap"
	LayerMeasurement LayerType = "measurement"
)

// PointsCollection converts commercial points to Point features. The
// selected point carries selected=true.
func PointsCollection(points []types.CommercialPoint, selected types.PointID) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, p := range points {
		f := geojson.NewFeature(p.Position.Point())
		f.ID = string(p.ID)
		f.Properties["layer"] = string(LayerPoints)
		f.Properties["id"] = string(p.ID)
		f.Properties["label"] = p.Label
		f.Properties["category"] = string(p.Category)
		f.Properties["selected"] = p.ID == selected
		f.Properties["assessed"] = p.Assessed()

		if a := p.Assessment; a != nil {
			f.Properties["trafficScore"] = a.TrafficScore
			f.Properties["accessibilityScore"] = a.AccessibilityScore
			f.Properties["residentialDensity"] = a.ResidentialDensity
			f.Properties["commercialValue"] = a.CommercialValue
			f.Properties["influenceRadius"] = a.InfluenceRadius
			f.Properties["description"] = a.Description
			f.Properties["source"] = string(a.Source)
			f.Properties["combinedScore"] = a.CombinedScore()
		}

		fc.Append(f)
	}

	return fc
}

// ZonesCollection converts influence zones to closed Polygon features.
func ZonesCollection(zones []interaction.Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, z := range zones {
		poly := geo.ZonePolygon(z.Ring)
		if len(poly) == 0 {
			continue
		}

		f := geojson.NewFeature(poly)
		f.ID = string(z.PointID)
		f.Properties["layer"] = string(LayerZones)
		f.Properties["pointId"] = string(z.PointID)
		f.Properties["radius"] = z.Radius
		fc.Append(f)
	}

	return fc
}

// HeatmapCollection converts heatmap samples to weighted Point features.
func HeatmapCollection(samples []types.HeatmapSample) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, s := range samples {
		f := geojson.NewFeature(s.Position.Point())
		f.Properties["layer"] = string(LayerHeatmap)
		f.Properties["intensity"] = s.Intensity
		fc.Append(f)
	}

	return fc
}

// MeasurementCollection converts the live segment: a LineString once both
// endpoints are set, the start Point while it is open. ok=false yields an
// empty collection.
func MeasurementCollection(seg types.MeasurementSegment, ok bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if !ok {
		return fc
	}

	var f *geojson.Feature
	if seg.Complete() {
		f = geojson.NewFeature(orb.LineString{seg.Start.Point(), seg.End.Point()})
	} else {
		f = geojson.NewFeature(seg.Start.Point())
	}
	f.Properties["layer"] = string(LayerMeasurement)
	f.Properties["complete"] = seg.Complete()
	f.Properties["distance"] = seg.DistanceMeters
	fc.Append(f)

	return fc
}

// ToBytes marshals a collection with indentation.
func ToBytes(fc *geojson.FeatureCollection) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	return data, nil
}
