package reconcile

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"

	"github.com/morphotools/morphoverify/internal/errors"
	"github.com/morphotools/morphoverify/internal/specimen"
)

// progressEvery controls how often a batch progress line is logged.
const progressEvery = 10

// Batch applies the row reconciler to every row of an input table, in order.
type Batch struct {
	reconciler *RowReconciler
	log        *slog.Logger
}

// NewBatch creates a batch driver around a row reconciler.
func NewBatch(reconciler *RowReconciler, log *slog.Logger) *Batch {
	if log == nil {
		log = slog.Default()
	}
	return &Batch{reconciler: reconciler, log: log}
}

// Table is a parsed input file: the header plus raw rows, with the indexes of
// the required columns resolved up front.
type Table struct {
	header  []string
	rows    [][]string
	columns map[string]int
}

// ReadTable loads and validates the input table. A missing file or a missing
// required column is a whole-batch failure reported before any row runs.
func ReadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Newf("cannot open input file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("reconcile").
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow a variable number of fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Newf("error reading CSV file: %w", err).
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Component("reconcile").
			Build()
	}
	if len(records) == 0 {
		return nil, errors.Newf("input file has no header row").
			Category(errors.CategoryValidation).
			Context("path", path).
			Component("reconcile").
			Build()
	}

	header := records[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	for _, required := range RequiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, errors.Newf("missing required column: %s", required).
				Category(errors.CategoryValidation).
				Context("column", required).
				Context("path", path).
				Component("reconcile").
				Build()
		}
	}

	return &Table{
		header:  header,
		rows:    records[1:],
		columns: columns,
	}, nil
}

// cell returns a named column's value for a row, tolerating short rows.
func (t *Table) cell(row []string, column string) string {
	idx := t.columns[column]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// input builds the InputRecord for a raw row.
func (t *Table) input(row []string) InputRecord {
	return InputRecord{
		Institution: t.cell(row, "institution_code"),
		Collection:  t.cell(row, "collection_code"),
		Catalog:     t.cell(row, "catalog_number"),
		Spacing: specimen.SpacingTriple{
			X: specimen.ParseSpacing(t.cell(row, "Voxel_x_spacing")),
			Y: specimen.ParseSpacing(t.cell(row, "Voxel_y_spacing")),
			Z: specimen.ParseSpacing(t.cell(row, "Voxel_z_spacing")),
		},
	}
}

// Run reconciles every row of the table in input order and returns the
// resulting records plus the final tally. Per-row lookup failures are counted
// and carried on the row, never raised.
func (b *Batch) Run(ctx context.Context, t *Table) ([]Record, *Summary, error) {
	records := make([]Record, 0, len(t.rows))
	summary := NewSummary()

	b.log.Info("Starting reconciliation batch", "rows", len(t.rows))

	for i, row := range t.rows {
		rec := b.reconciler.Reconcile(ctx, t.input(row))
		records = append(records, rec)
		summary.Add(rec)

		b.log.Info("Row reconciled",
			"row", i+1,
			"specimen_id", rec.SpecimenID.String(),
			"status", string(rec.Status),
			"match", rec.Outcome.String())

		if rec.Status != StatusNoID && summary.Searched%progressEvery == 0 {
			b.log.Info("Progress", "searches", summary.Searched, "rows_done", i+1, "rows_total", len(t.rows))
		}
	}

	b.log.Info("Reconciliation batch complete",
		"rows", len(records),
		"searched", summary.Searched,
		"found", summary.Found,
		"verified", summary.Verified)

	return records, summary, nil
}

// WriteTable writes the annotated output table: original columns preserved in
// order, appended columns per record, one output row per input row.
func WriteTable(path string, t *Table, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Newf("cannot create output file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("reconcile").
			Build()
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := make([]string, 0, len(t.header)+len(AddedColumns))
	header = append(header, t.header...)
	header = append(header, AddedColumns...)
	if err := writer.Write(header); err != nil {
		return errors.Newf("error writing output header: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("reconcile").
			Build()
	}

	for i, row := range t.rows {
		out := make([]string, 0, len(header))
		out = append(out, row...)
		// Pad short rows so annotations land in the right columns
		for len(out) < len(t.header) {
			out = append(out, "")
		}
		out = append(out, records[i].annotations()...)
		if err := writer.Write(out); err != nil {
			return errors.Newf("error writing output row: %w", err).
				Category(errors.CategoryFileIO).
				Context("path", path).
				Context("row", i+1).
				Component("reconcile").
				Build()
		}
	}

	writer.Flush()
	return writer.Error()
}
