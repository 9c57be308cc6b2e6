package gportal

import (
	"fmt"
	"net/url"
	"strconv"
)

// SearchParams represents parameters for GPortal catalog queries. Pointer
// fields mean "not supplied" and are omitted from the query string.
type SearchParams struct {
	// Product selects the dataset to search.
	Product Product

	// Date is the observation date (YYYY-MM-DD). The search window spans
	// that whole day.
	Date string

	// Point-of-interest filter. Both must be set to take effect.
	Latitude  *float64
	Longitude *float64

	// Resolution class filter.
	Resolution Resolution

	// Orbit filters.
	PathNumber  *int
	SceneNumber *int

	// Count caps the number of returned hits. Zero means the server
	// default.
	Count int
}

// ToQueryString converts SearchParams to a URL query string.
func (p *SearchParams) ToQueryString() string {
	return p.ToURLValues().Encode()
}

// ToURLValues converts SearchParams to url.Values for query string
// building.
func (p *SearchParams) ToURLValues() url.Values {
	values := url.Values{}

	if id := p.Product.DatasetID(); id != "" {
		values.Set("datasetId", id)
	}

	if p.Date != "" {
		values.Set("startTime", p.Date+"T00:00:00Z")
		values.Set("endTime", p.Date+"T23:59:59Z")
	}

	// A point of interest becomes a degenerate bbox; GPortal treats it as
	// an intersection query.
	if p.Latitude != nil && p.Longitude != nil {
		lon := formatCoord(*p.Longitude)
		lat := formatCoord(*p.Latitude)
		values.Set("bbox", fmt.Sprintf("%s,%s,%s,%s", lon, lat, lon, lat))
	}

	if p.Resolution != "" {
		values.Set("resolution", strconv.Itoa(p.Resolution.Meters()))
	}

	if p.PathNumber != nil {
		values.Set("pathNo", strconv.Itoa(*p.PathNumber))
	}
	if p.SceneNumber != nil {
		values.Set("sceneNo", strconv.Itoa(*p.SceneNumber))
	}

	if p.Count > 0 {
		values.Set("count", strconv.Itoa(p.Count))
	}

	return values
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
