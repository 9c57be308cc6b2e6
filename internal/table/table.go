// Package table holds the persistent output table of resolved scenes: an
// ordered arena of rows plus an identifier index, with CSV load/save.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rsl-kuas/gportal-resolver/internal/gportal"
)

// OutputColumns are the columns written by resolution. A loaded file may
// carry additional columns (the query columns, when input and output are
// the same file); those pass through load and save untouched.
var OutputColumns = []string{
	"identifier",
	"file_status",
	"resolution",
	"path_number",
	"scene_number",
	"download_url",
	"preview_url",
	"cloud_coverage",
}

// Offsets into OutputColumns.
const (
	colIdentifier = iota
	colFileStatus
	colResolution
	colPathNumber
	colSceneNumber
	colDownloadURL
	colPreviewURL
	colCloudCoverage
)

// Row is the projection of one table row onto the output columns. Values
// stay as strings end to end so that a load/save round trip reproduces
// the file byte for byte.
type Row struct {
	Identifier    string
	FileStatus    string
	Resolution    string
	PathNumber    string
	SceneNumber   string
	DownloadURL   string
	PreviewURL    string
	CloudCoverage string
}

// Table is an ordered sequence of rows with an identifier-to-position
// index built at load time. A single writer owns it for a run.
//
// Internally each row is the full CSV record: the output columns are
// addressed by position within the header, so a table seeded from a
// query-format file keeps the query columns alongside the resolved
// fields, the way the original single-file workflow expects.
type Table struct {
	header []string
	rows   [][]string
	outIdx []int // position of each output column within header
	index  map[string]int
}

// New returns an empty table with only the output columns.
func New() *Table {
	t := &Table{
		header: append([]string(nil), OutputColumns...),
		outIdx: make([]int, len(OutputColumns)),
		index:  make(map[string]int),
	}
	for i := range t.outIdx {
		t.outIdx[i] = i
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// At returns the output-column projection of the row at the given
// position.
func (t *Table) At(pos int) (Row, bool) {
	if pos < 0 || pos >= len(t.rows) {
		return Row{}, false
	}
	rec := t.rows[pos]
	return Row{
		Identifier:    rec[t.outIdx[colIdentifier]],
		FileStatus:    rec[t.outIdx[colFileStatus]],
		Resolution:    rec[t.outIdx[colResolution]],
		PathNumber:    rec[t.outIdx[colPathNumber]],
		SceneNumber:   rec[t.outIdx[colSceneNumber]],
		DownloadURL:   rec[t.outIdx[colDownloadURL]],
		PreviewURL:    rec[t.outIdx[colPreviewURL]],
		CloudCoverage: rec[t.outIdx[colCloudCoverage]],
	}, true
}

// Position returns the position of the row carrying the identifier.
func (t *Table) Position(identifier string) (int, bool) {
	pos, ok := t.index[identifier]
	return pos, ok
}

func (t *Table) blankRow() []string {
	return make([]string, len(t.header))
}

// EnsureLen appends blank rows until the table holds at least n rows, so
// row positions stay aligned with the input query table.
func (t *Table) EnsureLen(n int) {
	for len(t.rows) < n {
		t.rows = append(t.rows, t.blankRow())
	}
}

// Upsert writes a resolved footprint's projected fields into the row at
// pos, appending when pos equals the current length. Only the output
// columns are touched; any query columns in the same row keep their
// values. A nil footprint leaves the row entirely untouched, which
// preserves manual or previously resolved entries on re-runs.
func (t *Table) Upsert(pos int, fp *gportal.Footprint) error {
	if pos < 0 || pos > len(t.rows) {
		return fmt.Errorf("row position %d out of range (table has %d rows)", pos, len(t.rows))
	}
	if fp == nil {
		return nil
	}

	if pos == len(t.rows) {
		t.rows = append(t.rows, t.blankRow())
	}

	rec := t.rows[pos]
	if old := rec[t.outIdx[colIdentifier]]; old != "" {
		delete(t.index, old)
	}

	rec[t.outIdx[colIdentifier]] = fp.Identifier
	rec[t.outIdx[colFileStatus]] = fp.Status
	rec[t.outIdx[colResolution]] = fp.Resolution
	rec[t.outIdx[colPathNumber]] = strconv.Itoa(fp.PathNumber)
	rec[t.outIdx[colSceneNumber]] = strconv.Itoa(fp.SceneNumber)
	rec[t.outIdx[colDownloadURL]] = fp.DownloadURL
	rec[t.outIdx[colPreviewURL]] = fp.PreviewURL
	if fp.CloudCover != nil {
		rec[t.outIdx[colCloudCoverage]] = strconv.FormatFloat(*fp.CloudCover, 'f', -1, 64)
	} else {
		rec[t.outIdx[colCloudCoverage]] = ""
	}

	if fp.Identifier != "" {
		t.index[fp.Identifier] = pos
	}
	return nil
}

// Save writes the full table to path atomically: the file is staged next
// to the target and renamed into place, so an interrupted flush never
// leaves a partially written table.
func (t *Table) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage table file: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write table header: %w", err)
	}
	for i := range t.rows {
		if err := w.Write(t.rows[i]); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("failed to write table row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close table file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}

// Load reads a previously saved table or a query-format file, rebuilding
// the identifier index. Output columns are located by header name; any
// missing ones are appended to the header (blank for existing rows) and
// all other columns pass through untouched, so resolving into the input
// file itself keeps the query columns intact.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}
	if len(records) == 0 {
		return New(), nil
	}

	header := records[0]
	byName := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := byName[key]; !ok {
			byName[key] = i
		}
	}

	t := &Table{
		header: append([]string(nil), header...),
		outIdx: make([]int, len(OutputColumns)),
		index:  make(map[string]int),
	}
	for i, name := range OutputColumns {
		if j, ok := byName[name]; ok {
			t.outIdx[i] = j
			continue
		}
		t.outIdx[i] = len(t.header)
		t.header = append(t.header, name)
	}

	for _, rec := range records[1:] {
		row := t.blankRow()
		copy(row, rec)
		if id := row[t.outIdx[colIdentifier]]; id != "" {
			t.index[id] = len(t.rows)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// LoadOrNew loads a table when path exists and returns an empty one
// otherwise, so a first run and a resumed run take the same code path.
func LoadOrNew(path string) (*Table, error) {
	t, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	return t, nil
}
