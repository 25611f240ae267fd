// Package reconcile matches local specimen rows against the MorphoSource
// registry and produces the annotated output table.
package reconcile

import (
	"github.com/morphotools/morphoverify/internal/specimen"
)

// Status labels the lookup result of a row in the output table.
type Status string

const (
	StatusFound    Status = "Found"
	StatusNotFound Status = "Not Found"
	StatusNoID     Status = "No Specimen ID"
	StatusError    Status = "Error"
)

// RequiredColumns are the input table columns the batch refuses to run without.
var RequiredColumns = []string{
	"institution_code",
	"collection_code",
	"catalog_number",
	"Voxel_x_spacing",
	"Voxel_y_spacing",
	"Voxel_z_spacing",
}

// AddedColumns are appended to the input header in the output table.
var AddedColumns = []string{
	"constructed_specimen_id",
	"morphosource_status",
	"matched_media_id",
	"match_status",
	"api_x_spacing",
	"api_y_spacing",
	"api_z_spacing",
}

// InputRecord is one source row's reconciliation-relevant fields.
type InputRecord struct {
	Institution string
	Collection  string
	Catalog     string
	Spacing     specimen.SpacingTriple
}

// Record is the reconciliation result for one input row. Exactly one Record is
// produced per InputRecord, in input order, and never mutated afterwards.
type Record struct {
	Input      InputRecord
	SpecimenID specimen.Identifier // empty when no valid identifier could be built
	Status     Status
	MediaID    string
	Outcome    specimen.MatchOutcome
	APISpacing specimen.SpacingTriple
}

// annotations renders the appended output columns for this record, in
// AddedColumns order.
func (r *Record) annotations() []string {
	return []string{
		r.SpecimenID.String(),
		string(r.Status),
		r.MediaID,
		r.Outcome.String(),
		specimen.FormatSpacing(r.APISpacing.X),
		specimen.FormatSpacing(r.APISpacing.Y),
		specimen.FormatSpacing(r.APISpacing.Z),
	}
}
