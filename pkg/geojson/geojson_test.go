package geojson

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPointInRing(t *testing.T) {
	// Unit square (open ring, closing edge implicit)
	sqX := []float64{0, 4, 4, 0}
	sqY := []float64{0, 0, 4, 4}

	// Concave "L" shape
	lX := []float64{0, 4, 4, 2, 2, 0}
	lY := []float64{0, 0, 2, 2, 4, 4}

	tests := []struct {
		name     string
		xs, ys   []float64
		px, py   float64
		expected bool
	}{
		{"square center", sqX, sqY, 2, 2, true},
		{"square outside east", sqX, sqY, 5, 2, false},
		{"square far outside bbox", sqX, sqY, 100, -50, false},
		{"square near corner inside", sqX, sqY, 0.1, 0.1, true},
		{"concave notch excluded", lX, lY, 3, 3, false},
		{"concave arm included", lX, lY, 1, 3, true},
		{"concave base included", lX, lY, 3, 1, true},
		{"two vertices", []float64{0, 1}, []float64{0, 1}, 0.5, 0.5, false},
		{"mismatched lengths", sqX, []float64{0, 0, 4}, 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointInRing(tt.xs, tt.ys, tt.px, tt.py)
			if got != tt.expected {
				t.Errorf("PointInRing(%v, %v) = %v, expected %v", tt.px, tt.py, got, tt.expected)
			}
		})
	}
}

func TestPointInRing_ClosedRingEquivalent(t *testing.T) {
	// Explicitly closed ring (repeated first vertex) must behave the same
	// as the open form.
	openX := []float64{138, 140, 140, 138}
	openY := []float64{34, 34, 36, 36}
	closedX := []float64{138, 140, 140, 138, 138}
	closedY := []float64{34, 34, 36, 36, 34}

	points := [][2]float64{{139, 35}, {141, 35}, {138.5, 35.9}}
	for _, p := range points {
		open := PointInRing(openX, openY, p[0], p[1])
		closed := PointInRing(closedX, closedY, p[0], p[1])
		if open != closed {
			t.Errorf("point (%v, %v): open ring %v, closed ring %v", p[0], p[1], open, closed)
		}
	}
}

func TestPointInRing_DegenerateEdges(t *testing.T) {
	// Repeated vertices create zero-length edges; the test must not change
	// outcome or divide by zero.
	xs := []float64{0, 0, 4, 4, 4, 0}
	ys := []float64{0, 0, 0, 4, 4, 4}

	if !PointInRing(xs, ys, 2, 2) {
		t.Error("expected point inside square with duplicated vertices")
	}
	if PointInRing(xs, ys, 5, 2) {
		t.Error("expected point outside square with duplicated vertices")
	}
}

func TestPointInRing_Deterministic(t *testing.T) {
	xs := []float64{0, 4, 4, 0}
	ys := []float64{0, 0, 4, 4}

	// Boundary point: either answer is acceptable, but it must not vary
	// between calls.
	first := PointInRing(xs, ys, 4, 2)
	for i := 0; i < 10; i++ {
		if PointInRing(xs, ys, 4, 2) != first {
			t.Fatal("boundary classification changed between calls")
		}
	}
}

func TestMinDistanceToBorder(t *testing.T) {
	sqX := []float64{0, 4, 4, 0}
	sqY := []float64{0, 0, 4, 4}

	tests := []struct {
		name     string
		px, py   float64
		expected float64
	}{
		{"center", 2, 2, 2},
		{"near south edge", 2, 1, 1},
		{"on edge", 2, 0, 0},
		{"on vertex", 0, 0, 0},
		{"outside nearest to edge interior", 2, -3, 3},
		{"outside nearest to corner", 7, 8, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinDistanceToBorder(sqX, sqY, tt.px, tt.py)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MinDistanceToBorder(%v, %v) = %v, expected %v", tt.px, tt.py, got, tt.expected)
			}
		})
	}
}

func TestMinDistanceToBorder_DeeperIsLarger(t *testing.T) {
	sqX := []float64{0, 10, 10, 0}
	sqY := []float64{0, 0, 10, 10}

	edge := MinDistanceToBorder(sqX, sqY, 5, 1)
	center := MinDistanceToBorder(sqX, sqY, 5, 5)
	if center <= edge {
		t.Errorf("expected center score %v > edge score %v", center, edge)
	}
}

func TestGeometry_OuterRing(t *testing.T) {
	g := &Geometry{
		Type:        "Polygon",
		Coordinates: json.RawMessage(`[[[138.0, 34.0], [140.0, 34.0], [140.0, 36.0], [138.0, 36.0], [138.0, 34.0]]]`),
	}

	ring, err := g.OuterRing()
	if err != nil {
		t.Fatalf("OuterRing failed: %v", err)
	}
	if len(ring) != 5 {
		t.Fatalf("expected 5 vertices, got %d", len(ring))
	}
	if ring[0][0] != 138.0 || ring[0][1] != 34.0 {
		t.Errorf("unexpected first vertex: %v", ring[0])
	}
}

func TestGeometry_OuterRing_NotPolygon(t *testing.T) {
	g := &Geometry{
		Type:        "Point",
		Coordinates: json.RawMessage(`[139.0, 35.0]`),
	}
	if _, err := g.OuterRing(); err == nil {
		t.Error("expected error for non-Polygon geometry")
	}
}
