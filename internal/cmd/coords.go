package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/sitescout/internal/types"
)

// parseCoordinate parses "lat,lng".
func parseCoordinate(s string) (types.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return types.Coordinate{}, fmt.Errorf("expected lat,lng, got %q", s)
	}

	var vals [2]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return types.Coordinate{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		vals[i] = val
	}

	c := types.NewCoordinate(vals[0], vals[1])
	if !c.Valid() {
		return types.Coordinate{}, fmt.Errorf("coordinate %s out of range", c)
	}
	return c, nil
}
