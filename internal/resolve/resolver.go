// Package resolve selects the single best footprint from a catalog
// candidate set according to the caller's query filter.
package resolve

import (
	"fmt"

	"github.com/rsl-kuas/gportal-resolver/internal/gportal"
	"github.com/rsl-kuas/gportal-resolver/pkg/geojson"
)

// Filter narrows a candidate set. Pointer fields mean "not supplied".
// A path/scene pair is only effective when both halves are present, and
// likewise for latitude/longitude.
type Filter struct {
	Latitude    *float64
	Longitude   *float64
	PathNumber  *int
	SceneNumber *int
}

// hasOrbit reports whether the filter carries a complete path/scene pair.
func (f *Filter) hasOrbit() bool {
	return f.PathNumber != nil && f.SceneNumber != nil
}

// hasPoint reports whether the filter carries a complete lat/lon pair.
func (f *Filter) hasPoint() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// GeometryError reports a malformed footprint polygon encountered during
// geographic filtering. It indicates corrupt catalog data, not absence of
// a match, and aborts the resolution call that hit it.
type GeometryError struct {
	Identifier string
	Reason     string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("malformed footprint polygon for %s: %s", e.Identifier, e.Reason)
}

// Resolve picks at most one footprint from the candidate set.
//
// Priority order:
//  1. An empty set resolves to no match (nil, nil).
//  2. With no effective filter, the first candidate wins (catalog
//     relevance order).
//  3. A complete path/scene pair selects the first candidate matching
//     both numbers, and takes absolute priority over a point filter when
//     both are supplied. No matching candidate means no match.
//  4. A complete lat/lon pair keeps the candidates whose footprint
//     contains the point, then picks the one where the point sits deepest
//     (maximum distance to the footprint border). Exact distance ties go
//     to the earliest candidate in catalog order.
//
// Resolve is pure: it never mutates the set and calling it twice with the
// same inputs yields the same result.
func Resolve(set gportal.CandidateSet, f Filter) (*gportal.Footprint, error) {
	if len(set) == 0 {
		return nil, nil
	}

	if !f.hasOrbit() && !f.hasPoint() {
		return &set[0], nil
	}

	if f.hasOrbit() {
		for i := range set {
			if set[i].PathNumber == *f.PathNumber && set[i].SceneNumber == *f.SceneNumber {
				return &set[i], nil
			}
		}
		return nil, nil
	}

	return resolveByPoint(set, *f.Longitude, *f.Latitude)
}

// resolveByPoint keeps the candidates containing (lon, lat) and returns
// the one whose interior holds the point most comfortably.
func resolveByPoint(set gportal.CandidateSet, lon, lat float64) (*gportal.Footprint, error) {
	var contained []*gportal.Footprint
	for i := range set {
		xs, ys, err := ringCoords(&set[i])
		if err != nil {
			return nil, err
		}
		if geojson.PointInRing(xs, ys, lon, lat) {
			contained = append(contained, &set[i])
		}
	}

	switch len(contained) {
	case 0:
		return nil, nil
	case 1:
		return contained[0], nil
	}

	// Several footprints contain the point; prefer the one where the
	// point is farthest from any border. Strict comparison keeps the
	// earliest candidate on exact ties.
	best := contained[0]
	bestDist := borderDistance(best, lon, lat)
	for _, fp := range contained[1:] {
		if d := borderDistance(fp, lon, lat); d > bestDist {
			best, bestDist = fp, d
		}
	}
	return best, nil
}

func borderDistance(fp *gportal.Footprint, lon, lat float64) float64 {
	// ringCoords already validated the ring during the containment pass.
	xs, ys, _ := ringCoords(fp)
	return geojson.MinDistanceToBorder(xs, ys, lon, lat)
}

// ringCoords splits a footprint's ring into parallel coordinate
// sequences, validating it is usable for geometric tests.
func ringCoords(fp *gportal.Footprint) (xs, ys []float64, err error) {
	if len(fp.Polygon) < 3 {
		return nil, nil, &GeometryError{
			Identifier: fp.Identifier,
			Reason:     fmt.Sprintf("ring has %d vertices, need at least 3", len(fp.Polygon)),
		}
	}

	xs = make([]float64, len(fp.Polygon))
	ys = make([]float64, len(fp.Polygon))
	for i, v := range fp.Polygon {
		if len(v) < 2 {
			return nil, nil, &GeometryError{
				Identifier: fp.Identifier,
				Reason:     fmt.Sprintf("vertex %d has %d coordinates, need 2", i, len(v)),
			}
		}
		xs[i] = v[0]
		ys[i] = v[1]
	}
	return xs, ys, nil
}
