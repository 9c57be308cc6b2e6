// Package pipeline drives bulk resolution over a table of queries:
// strictly sequential rows, periodic checkpoints and skip-if-done resume.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rsl-kuas/gportal-resolver/internal/gportal"
	"github.com/rsl-kuas/gportal-resolver/internal/resolve"
	"github.com/rsl-kuas/gportal-resolver/internal/table"
)

// Searcher is the narrow capability the driver needs from the catalog.
// The production implementation is *gportal.Client; tests use a fake.
type Searcher interface {
	Search(ctx context.Context, params gportal.SearchParams) (gportal.CandidateSet, error)
}

// RowState is the terminal state of one processed row.
type RowState int

const (
	// RowPending marks a row not yet attempted this run.
	RowPending RowState = iota
	// RowSkipped marks a row bypassed because it already carries an
	// identifier and skip-if-done is enabled.
	RowSkipped
	// RowResolved marks a row whose footprint was written to the table.
	RowResolved
	// RowUnresolved marks a row with no matching footprint; it keeps its
	// previous values.
	RowUnresolved
	// RowErrored marks a row aborted by corrupt catalog geometry; it is
	// left unmodified.
	RowErrored
)

func (s RowState) String() string {
	switch s {
	case RowPending:
		return "pending"
	case RowSkipped:
		return "skipped"
	case RowResolved:
		return "resolved"
	case RowUnresolved:
		return "unresolved"
	case RowErrored:
		return "errored"
	}
	return fmt.Sprintf("RowState(%d)", int(s))
}

// Config holds the driver's policy knobs.
type Config struct {
	// SkipIfDone bypasses rows that already carry a non-empty identifier,
	// without calling the catalog.
	SkipIfDone bool

	// DefaultResolution applies when a query row's resolution cell is
	// blank or unreadable.
	DefaultResolution gportal.Resolution

	// CheckpointInterval is the number of processed rows between full
	// flushes of the table. Zero disables intermediate checkpoints; the
	// final flush always happens.
	CheckpointInterval int

	// Product selects the dataset searched for every row.
	Product gportal.Product

	// Count caps candidates per search call.
	Count int

	// OutputPath is where checkpoints and the final table are written.
	OutputPath string
}

// Summary reports per-state row counts for a completed run.
type Summary struct {
	Total      int
	Skipped    int
	Resolved   int
	Unresolved int
	Errored    int
}

// Driver applies resolution across a query table. It is the table's only
// writer for the duration of a run.
type Driver struct {
	searcher Searcher
	table    *table.Table
	cfg      Config
	logger   *slog.Logger
	progress func(done, total int)
}

// NewDriver creates a driver writing into tbl, which may be empty or
// seeded from a prior checkpoint file.
func NewDriver(searcher Searcher, tbl *table.Table, cfg Config) *Driver {
	return &Driver{
		searcher: searcher,
		table:    tbl,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger for the driver.
func (d *Driver) WithLogger(logger *slog.Logger) *Driver {
	d.logger = logger
	return d
}

// WithProgress registers a callback fired once per processed row with the
// number of rows handled so far and the total. It fires regardless of the
// row's outcome.
func (d *Driver) WithProgress(fn func(done, total int)) *Driver {
	d.progress = fn
	return d
}

// Run processes every query in order. Per-row failures (empty results,
// catalog errors, corrupt geometry) never abort the run; a failed
// checkpoint write does, because resumability depends on durable state.
// Cancelling the context stops the run between rows; everything up to the
// last checkpoint stays durable.
func (d *Driver) Run(ctx context.Context, queries []table.QueryRow) (*Summary, error) {
	summary := &Summary{Total: len(queries)}

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		switch d.processRow(ctx, i, q) {
		case RowSkipped:
			summary.Skipped++
		case RowResolved:
			summary.Resolved++
		case RowUnresolved:
			summary.Unresolved++
		case RowErrored:
			summary.Errored++
		}

		if d.progress != nil {
			d.progress(i+1, len(queries))
		}

		if d.cfg.CheckpointInterval > 0 && (i+1)%d.cfg.CheckpointInterval == 0 {
			if err := d.checkpoint(); err != nil {
				return summary, err
			}
		}
	}

	if err := d.checkpoint(); err != nil {
		return summary, err
	}

	d.logger.Info("bulk resolution finished",
		slog.Int("total", summary.Total),
		slog.Int("resolved", summary.Resolved),
		slog.Int("skipped", summary.Skipped),
		slog.Int("unresolved", summary.Unresolved),
		slog.Int("errored", summary.Errored),
	)
	return summary, nil
}

func (d *Driver) processRow(ctx context.Context, pos int, q table.QueryRow) RowState {
	// One output row per query row, at the same position. Materializing
	// the row up front means unresolved rows persist as blanks instead of
	// shifting later rows up.
	d.table.EnsureLen(pos + 1)

	if d.cfg.SkipIfDone && d.identifierAt(pos, q) != "" {
		return RowSkipped
	}

	set, err := d.searcher.Search(ctx, d.paramsFor(q))
	if err != nil {
		// Transient catalog failure is indistinguishable from zero
		// results by policy: the row stays unresolved and the run
		// moves on.
		d.logger.Warn("catalog search failed, treating as empty result",
			slog.Int("row", pos),
			slog.String("error", err.Error()),
		)
		set = nil
	}

	fp, err := resolve.Resolve(set, resolve.Filter{
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		PathNumber:  q.PathNumber,
		SceneNumber: q.SceneNumber,
	})
	if err != nil {
		var gerr *resolve.GeometryError
		if errors.As(err, &gerr) {
			d.logger.Error("corrupt footprint geometry, leaving row unmodified",
				slog.Int("row", pos),
				slog.String("identifier", gerr.Identifier),
				slog.String("reason", gerr.Reason),
			)
		} else {
			d.logger.Error("resolution failed, leaving row unmodified",
				slog.Int("row", pos),
				slog.String("error", err.Error()),
			)
		}
		return RowErrored
	}

	if fp == nil {
		return RowUnresolved
	}

	if err := d.table.Upsert(pos, fp); err != nil {
		d.logger.Error("failed to write resolved row",
			slog.Int("row", pos),
			slog.String("error", err.Error()),
		)
		return RowErrored
	}
	return RowResolved
}

// identifierAt returns the identifier already recorded for a row: the
// seeded output row's when one exists, else the input row's. Either one
// marks the row as done for skip-if-done.
func (d *Driver) identifierAt(pos int, q table.QueryRow) string {
	if row, ok := d.table.At(pos); ok && row.Identifier != "" {
		return row.Identifier
	}
	return q.Identifier
}

// paramsFor derives the catalog query from one input row, applying the
// default resolution class when the cell is blank or unreadable.
func (d *Driver) paramsFor(q table.QueryRow) gportal.SearchParams {
	res := d.cfg.DefaultResolution
	if q.Resolution != "" {
		if parsed, err := gportal.ParseResolution(q.Resolution); err == nil {
			res = parsed
		} else {
			d.logger.Warn("unreadable resolution cell, using default",
				slog.String("cell", q.Resolution),
				slog.String("default", string(res)),
			)
		}
	}

	return gportal.SearchParams{
		Product:     d.cfg.Product,
		Date:        q.Date,
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		Resolution:  res,
		PathNumber:  q.PathNumber,
		SceneNumber: q.SceneNumber,
		Count:       d.cfg.Count,
	}
}

func (d *Driver) checkpoint() error {
	if err := d.table.Save(d.cfg.OutputPath); err != nil {
		return fmt.Errorf("checkpoint write failed: %w", err)
	}
	return nil
}
