package reconcile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphotools/morphoverify/internal/errors"
	"github.com/morphotools/morphoverify/internal/morphosource"
	"github.com/morphotools/morphoverify/internal/specimen"
)

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(rows))
	return path
}

func inputHeader() []string {
	return []string{
		"occurrence_id", "institution_code", "collection_code", "catalog_number",
		"Voxel_x_spacing", "Voxel_y_spacing", "Voxel_z_spacing",
	}
}

func TestReadTable_MissingColumnFailsFast(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, [][]string{
		{"institution_code", "collection_code", "Voxel_x_spacing", "Voxel_y_spacing", "Voxel_z_spacing"},
		{"UF", "Herp", "0.02", "0.02", "0.02"},
	})

	table, err := ReadTable(path)

	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Contains(t, err.Error(), "catalog_number")
}

func TestReadTable_MissingFile(t *testing.T) {
	t.Parallel()

	table, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

// scriptedSearcher returns a canned result per specimen identifier.
type scriptedSearcher struct {
	results map[string][]morphosource.Media
	errs    map[string]error
	calls   []string
}

func (s *scriptedSearcher) Search(_ context.Context, specimenID string) ([]morphosource.Media, error) {
	s.calls = append(s.calls, specimenID)
	if err, ok := s.errs[specimenID]; ok {
		return nil, err
	}
	return s.results[specimenID], nil
}

func TestBatch_EndToEnd(t *testing.T) {
	t.Parallel()

	// Row 1 resolves Found with verifying spacing, row 2 is absent from the
	// registry, row 3 has a blank institution code.
	path := writeCSV(t, [][]string{
		inputHeader(),
		{"occ-1", "UF", "Herp", "84822", "0.0234", "0.0234", "0.0234"},
		{"occ-2", "MCZ", "Mamm", "1234", "0.05", "0.05", "0.05"},
		{"occ-3", "", "Herp", "555", "0.01", "0.01", "0.01"},
	})

	table, err := ReadTable(path)
	require.NoError(t, err)

	searcher := &scriptedSearcher{
		results: map[string][]morphosource.Media{
			"UF:Herp:84822": {
				{ID: "000123456", Spacing: specimen.SpacingTriple{
					X: specimen.Float64(0.0234),
					Y: specimen.Float64(0.0234),
					Z: specimen.Float64(0.0234),
				}},
			},
		},
	}
	batch := NewBatch(NewRowReconciler(searcher, specimen.DefaultTolerance, nil), nil)

	records, summary, err := batch.Run(context.Background(), table)
	require.NoError(t, err)

	// One output record per input row, in input order
	require.Len(t, records, 3)
	assert.Equal(t, StatusFound, records[0].Status)
	assert.Equal(t, specimen.MatchYes, records[0].Outcome)
	assert.Equal(t, "000123456", records[0].MediaID)
	assert.Equal(t, StatusNotFound, records[1].Status)
	assert.Equal(t, specimen.MatchNo, records[1].Outcome)
	assert.Equal(t, StatusNoID, records[2].Status)
	assert.Equal(t, specimen.MatchNo, records[2].Outcome)

	// The blank-identifier row never reached the registry
	assert.Equal(t, []string{"UF:Herp:84822", "MCZ:Mamm:1234"}, searcher.calls)

	// Tally: Yes=1, No=2
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.Searched)
	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, summary.Verified)
	assert.Equal(t, 1, summary.ByOutcome[specimen.MatchYes])
	assert.Equal(t, 2, summary.ByOutcome[specimen.MatchNo])
	assert.Equal(t, 1, summary.ByStatus[StatusFound])
	assert.Equal(t, 1, summary.ByStatus[StatusNotFound])
	assert.Equal(t, 1, summary.ByStatus[StatusNoID])
}

func TestBatch_QueryErrorDoesNotAbort(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, [][]string{
		inputHeader(),
		{"occ-1", "UF", "Herp", "1", "0.02", "0.02", "0.02"},
		{"occ-2", "UF", "Herp", "2", "0.02", "0.02", "0.02"},
	})

	table, err := ReadTable(path)
	require.NoError(t, err)

	searcher := &scriptedSearcher{
		errs: map[string]error{
			"UF:Herp:1": errors.Newf("boom").Category(errors.CategoryNetwork).Build(),
		},
	}
	batch := NewBatch(NewRowReconciler(searcher, specimen.DefaultTolerance, nil), nil)

	records, summary, err := batch.Run(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, StatusError, records[0].Status)
	assert.Equal(t, StatusNotFound, records[1].Status)
	assert.Equal(t, 1, summary.ByStatus[StatusError])
	assert.Len(t, searcher.calls, 2, "batch must continue past a failing row")
}

func TestWriteTable_PreservesColumnsAndOrder(t *testing.T) {
	t.Parallel()

	inPath := writeCSV(t, [][]string{
		inputHeader(),
		{"occ-1", "UF", "Herp", "84822", "0.0234", "0.0234", "0.0234"},
		{"occ-2", "", "Herp", "555", "", "", ""},
	})

	table, err := ReadTable(inPath)
	require.NoError(t, err)

	searcher := &scriptedSearcher{
		results: map[string][]morphosource.Media{
			"UF:Herp:84822": {
				{ID: "media-9", Spacing: specimen.SpacingTriple{
					X: specimen.Float64(0.0234),
					Y: specimen.Float64(0.0234),
					Z: specimen.Float64(0.0234),
				}},
			},
		},
	}
	batch := NewBatch(NewRowReconciler(searcher, specimen.DefaultTolerance, nil), nil)
	records, _, err := batch.Run(context.Background(), table)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "matched-input.csv")
	require.NoError(t, WriteTable(outPath, table, records))

	file, err := os.Open(outPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	wantHeader := append(inputHeader(), AddedColumns...)
	assert.Equal(t, wantHeader, rows[0])

	// Row 1: original cells preserved, annotations populated
	assert.Equal(t, "occ-1", rows[1][0])
	assert.Equal(t, "UF:Herp:84822", rows[1][7])
	assert.Equal(t, "Found", rows[1][8])
	assert.Equal(t, "media-9", rows[1][9])
	assert.Equal(t, "Yes", rows[1][10])
	assert.Equal(t, "0.0234", rows[1][11])

	// Row 2: no identifier, lookup fields empty
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "No Specimen ID", rows[2][8])
	assert.Equal(t, "", rows[2][9])
	assert.Equal(t, "No", rows[2][10])
	assert.Equal(t, "", rows[2][11])
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		filepath.Join("data", "output", "matched-specimens.csv"),
		OutputPath(filepath.Join("data", "output"), filepath.Join("in", "specimens.csv")))
}
