// Package geojson provides GeoJSON geometry decoding and the planar
// primitives used to match points against scene footprints.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// OuterRing returns the exterior ring of a Polygon geometry as a sequence
// of [lon, lat] vertex pairs.
func (g *Geometry) OuterRing() ([][]float64, error) {
	rings, err := g.Polygon()
	if err != nil {
		return nil, err
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}
	return rings[0], nil
}

// PointInRing reports whether point (px, py) lies inside the closed ring
// described by the parallel coordinate sequences xs and ys. The ring is
// treated as implicitly closed: the edge between the last and first vertex
// is included, and a repeated closing vertex is harmless (it forms a
// zero-length edge, which is skipped).
//
// Uses the crossing-number (ray casting) method, so both convex and
// non-convex simple rings work. Points exactly on an edge or vertex
// classify deterministically (half-open edge intervals) but not uniformly
// inside or outside.
//
// Returns false for rings with fewer than 3 vertices or mismatched
// sequence lengths.
func PointInRing(xs, ys []float64, px, py float64) bool {
	n := len(xs)
	if n < 3 || len(ys) != n {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		x1, y1 := xs[j], ys[j]
		x2, y2 := xs[i], ys[i]
		if x1 == x2 && y1 == y2 {
			// Zero-length edge, contributes nothing.
			j = i
			continue
		}
		if (y2 > py) != (y1 > py) {
			// Horizontal ray from the point crosses this edge.
			if px < (x1-x2)*(py-y2)/(y1-y2)+x2 {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// MinDistanceToBorder returns the planar Euclidean distance from point
// (px, py) to the nearest point on the ring's boundary, considering the
// interior of every edge segment, not just the vertices. The closing edge
// between the last and first vertex is included.
//
// The value is a relative score for ranking candidates that already
// contain the point; it is not a geodesic distance. Returns 0 for rings
// with no vertices.
func MinDistanceToBorder(xs, ys []float64, px, py float64) float64 {
	n := len(xs)
	if n == 0 || len(ys) != n {
		return 0
	}
	if n == 1 {
		return math.Hypot(px-xs[0], py-ys[0])
	}

	min := math.Inf(1)
	j := n - 1
	for i := 0; i < n; i++ {
		d := distanceToSegment(px, py, xs[j], ys[j], xs[i], ys[i])
		if d < min {
			min = d
		}
		j = i
	}
	return min
}

// distanceToSegment returns the distance from (px, py) to the segment
// (x1, y1)-(x2, y2). Degenerate segments collapse to a point distance.
func distanceToSegment(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}

	// Projection parameter of the point onto the segment, clamped to it.
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}
