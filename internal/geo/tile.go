package geo

import (
	"fmt"

	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/paulmach/orb/maptile"
)

// MaxTileZoom is the deepest zoom level accepted by ParseTile.
const MaxTileZoom = 22

// Tile is a Web Mercator tile coordinate (z/x/y) used by the map surface to
// request the part of a layer it is showing.
type Tile struct {
	Z uint32 // Zoom level
	X uint32 // Column
	Y uint32 // Row
}

// String returns the tile as "z/x/y".
func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// ParseTile parses "z/x/y" and checks the column and row exist at that zoom.
func ParseTile(s string) (Tile, error) {
	var t Tile
	if _, err := fmt.Sscanf(s, "%d/%d/%d", &t.Z, &t.X, &t.Y); err != nil {
		return Tile{}, fmt.Errorf("invalid tile %q: want z/x/y", s)
	}
	if t.Z > MaxTileZoom {
		return Tile{}, fmt.Errorf("invalid tile %q: zoom above %d", s, MaxTileZoom)
	}
	if n := uint32(1) << t.Z; t.X >= n || t.Y >= n {
		return Tile{}, fmt.Errorf("invalid tile %q: outside zoom %d", s, t.Z)
	}
	return t, nil
}

// TileAt returns the tile containing c at zoom z.
func TileAt(c types.Coordinate, z uint32) Tile {
	mt := maptile.At(c.Point(), maptile.Zoom(z))
	return Tile{Z: uint32(mt.Z), X: mt.X, Y: mt.Y}
}

// Bounds returns the geographic bounding box of the tile in WGS84.
func (t Tile) Bounds() types.BoundingBox {
	b := maptile.New(t.X, t.Y, maptile.Zoom(t.Z)).Bound()
	return types.BoundingBox{
		MinLon: b.Min.Lon(),
		MinLat: b.Min.Lat(),
		MaxLon: b.Max.Lon(),
		MaxLat: b.Max.Lat(),
	}
}

// Center returns the center of the tile.
func (t Tile) Center() types.Coordinate {
	return t.Bounds().Center()
}
