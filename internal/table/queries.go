package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// QueryRow is one input query. Pointer fields mean the cell was blank;
// blank is "not supplied", never zero.
type QueryRow struct {
	Date        string
	Latitude    *float64
	Longitude   *float64
	PathNumber  *int
	SceneNumber *int
	Resolution  string
	Identifier  string
}

// LoadQueries reads the input query CSV. Recognized columns are date,
// lat, lon, path_number, scene_number, resolution and identifier, located
// by header name; unknown columns are ignored and absent columns are
// treated as unsupplied for every row.
func LoadQueries(path string) ([]QueryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	queries := make([]QueryRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		q := QueryRow{
			Date:       cell(rec, "date"),
			Resolution: cell(rec, "resolution"),
			Identifier: cell(rec, "identifier"),
		}

		if q.Latitude, err = parseFloatCell(cell(rec, "lat")); err != nil {
			return nil, fmt.Errorf("row %d: invalid lat: %w", n+1, err)
		}
		if q.Longitude, err = parseFloatCell(cell(rec, "lon")); err != nil {
			return nil, fmt.Errorf("row %d: invalid lon: %w", n+1, err)
		}
		if q.PathNumber, err = parseIntCell(cell(rec, "path_number")); err != nil {
			return nil, fmt.Errorf("row %d: invalid path_number: %w", n+1, err)
		}
		if q.SceneNumber, err = parseIntCell(cell(rec, "scene_number")); err != nil {
			return nil, fmt.Errorf("row %d: invalid scene_number: %w", n+1, err)
		}

		queries = append(queries, q)
	}
	return queries, nil
}

func parseFloatCell(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// parseIntCell accepts both integer cells and the float rendering
// spreadsheet tools give integer columns ("512.0").
func parseIntCell(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return &i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	i := int(f)
	return &i, nil
}
