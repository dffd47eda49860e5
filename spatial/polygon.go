// Copyright 2025 The Podsudnost Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidPolygon is returned when a WKT territory cannot be parsed.
var ErrInvalidPolygon = errors.New("spatial: invalid polygon")

// Polygon is a court territory: one or more polygons, each an outer ring
// followed by its holes. Coordinates are (lng, lat).
type Polygon orb.MultiPolygon

// ParsePolygon parses a WKT POLYGON or MULTIPOLYGON. An empty string, or an
// EMPTY geometry, yields a nil polygon and no error.
func ParsePolygon(s string) (Polygon, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolygon, err)
	}

	var mp orb.MultiPolygon

	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			mp = orb.MultiPolygon{g}
		}
	case orb.MultiPolygon:
		mp = g
	default:
		return nil, fmt.Errorf("%w: unexpected %s", ErrInvalidPolygon, g.GeoJSONType())
	}

	for _, p := range mp {
		if len(p) == 0 {
			return nil, fmt.Errorf("%w: empty polygon", ErrInvalidPolygon)
		}

		for _, r := range p {
			if !r.Closed() {
				return nil, fmt.Errorf("%w: ring must be closed and have at least 4 points", ErrInvalidPolygon)
			}
		}
	}

	if len(mp) == 0 {
		return nil, nil
	}

	return Polygon(mp), nil
}

// WKT renders the territory in the form accepted by ST_GeomFromText.
func (poly Polygon) WKT() string {
	if len(poly) == 1 {
		return wkt.MarshalString(poly[0])
	}

	return wkt.MarshalString(orb.MultiPolygon(poly))
}

// Contains reports whether p lies inside the territory. Points on a
// boundary are inside, points in a hole are not.
func (poly Polygon) Contains(p Point) bool {
	return planar.MultiPolygonContains(orb.MultiPolygon(poly), orb.Point{p.Lng, p.Lat})
}
