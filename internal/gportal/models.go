package gportal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rsl-kuas/gportal-resolver/pkg/geojson"
)

// Resolution is the spatial resolution class of an SGLI product.
type Resolution string

const (
	// Resolution250m is the high resolution class (H).
	Resolution250m Resolution = "250m"
	// Resolution1km is the low resolution class (L).
	Resolution1km Resolution = "1km"
)

// ParseResolution parses a resolution cell, accepting either the string
// form ("250m", "1km") or the bare meter count used in query tables
// (250, 1000). Fractional values such as "250.0" are accepted because
// spreadsheet tools emit numeric cells that way.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "250m", "250", "250.0", "h":
		return Resolution250m, nil
	case "1km", "1000", "1000.0", "l":
		return Resolution1km, nil
	}
	return "", fmt.Errorf("unrecognized resolution %q, expected 250m or 1km", s)
}

// Meters returns the resolution as a meter count for query parameters.
func (r Resolution) Meters() int {
	if r == Resolution1km {
		return 1000
	}
	return 250
}

// Product is an SGLI processing level.
type Product string

const (
	ProductL1B Product = "L1B"
	ProductL2R Product = "L2R"
	ProductL2P Product = "L2P"
)

// ParseProduct parses a processing level name.
func ParseProduct(s string) (Product, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L1B":
		return ProductL1B, nil
	case "L2R":
		return ProductL2R, nil
	case "L2P":
		return ProductL2P, nil
	}
	return "", fmt.Errorf("unrecognized product level %q, expected L1B, L2R or L2P", s)
}

// DatasetID returns the GPortal dataset identifier for the product level.
func (p Product) DatasetID() string {
	switch p {
	case ProductL1B:
		return "10001"
	case ProductL2R:
		return "10002"
	case ProductL2P:
		return "10003"
	}
	return ""
}

// Footprint is one catalog search hit: the scene's coverage polygon plus
// the metadata projected into the output table.
type Footprint struct {
	Identifier  string
	Status      string
	Resolution  string
	PathNumber  int
	SceneNumber int

	// Polygon is the exterior ring of the scene footprint as ordered
	// [lon, lat] vertex pairs. The ring may or may not repeat its first
	// vertex; consumers treat it as closed either way.
	Polygon [][]float64

	DownloadURL string
	PreviewURL  string

	// CloudCover is the cloud cover percentage, nil when the catalog did
	// not report one.
	CloudCover *float64
}

// CandidateSet is the ordered list of footprints returned by one catalog
// search. Order reflects catalog relevance and is the fallback selection
// order during resolution.
type CandidateSet []Footprint

// searchResponse is the GPortal wire envelope, a GeoJSON-style
// FeatureCollection with GPortal-specific properties.
type searchResponse struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties properties        `json:"properties"`
}

// flexNumber tolerates the catalog's habit of emitting numeric fields as
// either bare JSON numbers or quoted digit strings depending on the
// dataset.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	*n = flexNumber(strings.Trim(strings.TrimSpace(string(b)), `"`))
	return nil
}

// properties mirrors GPortal's nested metadata envelope.
type properties struct {
	Identifier  string     `json:"identifier"`
	Status      string     `json:"status"`
	Resolution  string     `json:"resolution"`
	OrbitNumber flexNumber `json:"orbitNumber"`
	Meta        struct {
		SceneNumber          flexNumber `json:"sceneNumber"`
		CloudCoverPercentage *float64   `json:"cloudCoverPercentage"`
	} `json:"meta"`
	Product struct {
		DownloadURL string `json:"downloadUrl"`
	} `json:"product"`
	Previews []struct {
		URL string `json:"url"`
	} `json:"previews"`
}

// toFootprint flattens one wire feature into a Footprint. A footprint
// whose geometry cannot be decoded keeps a nil polygon; geographic
// filtering surfaces that downstream, where it is distinguishable from
// absence of a match.
func (f *feature) toFootprint() Footprint {
	fp := Footprint{
		Identifier:  f.Properties.Identifier,
		Status:      f.Properties.Status,
		Resolution:  f.Properties.Resolution,
		DownloadURL: f.Properties.Product.DownloadURL,
		CloudCover:  f.Properties.Meta.CloudCoverPercentage,
	}

	if n, err := parseNumber(f.Properties.OrbitNumber); err == nil {
		fp.PathNumber = n
	}
	if n, err := parseNumber(f.Properties.Meta.SceneNumber); err == nil {
		fp.SceneNumber = n
	}

	if len(f.Properties.Previews) > 0 {
		fp.PreviewURL = f.Properties.Previews[0].URL
	}

	if f.Geometry != nil {
		if ring, err := f.Geometry.OuterRing(); err == nil {
			fp.Polygon = ring
		}
	}

	return fp
}

// parseNumber reads a flexNumber that may carry an integer or a float
// rendering of an integer.
func parseNumber(n flexNumber) (int, error) {
	s := strings.TrimSpace(string(n))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("missing number")
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return int(f), nil
}
