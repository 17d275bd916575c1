package datasource

import (
	"time"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/MeKo-Tech/sitescout/internal/types"
)

// AmenityCounts summarises the OSM elements around a location.
// An element may count towards more than one category.
type AmenityCounts struct {
	Center       types.Coordinate
	RadiusMeters float64
	FetchedAt    time.Time

	Shops       int // shop=*
	Food        int // restaurants, cafes, fast food, banks, pharmacies
	Offices     int // office=*
	Transit     int // stops, platforms, stations
	Residential int // residential buildings and landuse
	MajorRoads  int // primary..tertiary highways
	Total       int // distinct elements seen
}

// CountAmenities classifies every node and way of an Overpass result.
func CountAmenities(result *overpass.Result) AmenityCounts {
	var counts AmenityCounts
	if result == nil {
		return counts
	}

	for _, node := range result.Nodes {
		if node == nil {
			continue
		}
		counts.add(node.Tags)
	}
	for _, way := range result.Ways {
		if way == nil {
			continue
		}
		counts.add(way.Tags)
	}

	return counts
}

func (c *AmenityCounts) add(tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	c.Total++

	if isShop(tags) {
		c.Shops++
	}
	if isFood(tags) {
		c.Food++
	}
	if isOffice(tags) {
		c.Offices++
	}
	if isTransit(tags) {
		c.Transit++
	}
	if isResidential(tags) {
		c.Residential++
	}
	if isMajorRoad(tags) {
		c.MajorRoads++
	}
}

func isShop(tags map[string]string) bool {
	return tags["shop"] != ""
}

func isFood(tags map[string]string) bool {
	switch tags["amenity"] {
	case "restaurant", "cafe", "fast_food", "bank", "pharmacy":
		return true
	}
	return false
}

func isOffice(tags map[string]string) bool {
	return tags["office"] != ""
}

func isTransit(tags map[string]string) bool {
	if tags["public_transport"] != "" || tags["highway"] == "bus_stop" {
		return true
	}
	switch tags["railway"] {
	case "station", "subway_entrance", "tram_stop":
		return true
	}
	return false
}

func isResidential(tags map[string]string) bool {
	switch tags["building"] {
	case "residential", "apartments", "house":
		return true
	}
	return tags["landuse"] == "residential"
}

func isMajorRoad(tags map[string]string) bool {
	switch tags["highway"] {
	case "primary", "secondary", "tertiary", "trunk":
		return true
	}
	return false
}
