package reconcile

import (
	"context"
	"log/slog"

	"github.com/morphotools/morphoverify/internal/morphosource"
	"github.com/morphotools/morphoverify/internal/specimen"
)

// Searcher is the registry lookup the reconciler depends on. Satisfied by
// *morphosource.Client, narrowed to an interface so tests can substitute a fake.
type Searcher interface {
	Search(ctx context.Context, specimenID string) ([]morphosource.Media, error)
}

// RowReconciler turns one input row into one reconciled output record.
type RowReconciler struct {
	searcher  Searcher
	tolerance float64
	log       *slog.Logger
}

// NewRowReconciler creates a row reconciler using the given registry searcher.
func NewRowReconciler(searcher Searcher, tolerance float64, log *slog.Logger) *RowReconciler {
	if tolerance <= 0 {
		tolerance = specimen.DefaultTolerance
	}
	if log == nil {
		log = slog.Default()
	}
	return &RowReconciler{
		searcher:  searcher,
		tolerance: tolerance,
		log:       log,
	}
}

// Reconcile produces the output record for one input row. Lookup failures are
// recorded on the row as StatusError and never propagate, so a failing search
// cannot abort the batch.
func (r *RowReconciler) Reconcile(ctx context.Context, in InputRecord) Record {
	rec := Record{Input: in, Outcome: specimen.MatchNo}

	id, ok := specimen.BuildIdentifier(in.Institution, in.Collection, in.Catalog)
	if !ok {
		// No identifier means no network call at all
		rec.Status = StatusNoID
		return rec
	}
	rec.SpecimenID = id

	matches, err := r.searcher.Search(ctx, id.String())
	if err != nil {
		r.log.Warn("Registry lookup failed, recording row as error",
			"specimen_id", id.String(),
			"error", err)
		rec.Status = StatusError
		return rec
	}

	if len(matches) == 0 {
		rec.Status = StatusNotFound
		return rec
	}

	rec.Status = StatusFound
	media, outcome := selectMedia(matches, in.Spacing, r.tolerance)
	rec.MediaID = media.ID
	rec.APISpacing = media.Spacing
	rec.Outcome = outcome

	return rec
}

// selectMedia picks the candidate to report. A candidate whose spacing
// verifies against the local triple wins; failing that, the first candidate
// carrying complete spacing data; failing that, the bare first candidate.
// Only the first match would be needed per the lookup contract, but preferring
// a verifying scan avoids reporting Mismatch when a later scan of the same
// specimen agrees with the local record.
func selectMedia(matches []morphosource.Media, local specimen.SpacingTriple, tolerance float64) (morphosource.Media, specimen.MatchOutcome) {
	for _, m := range matches {
		if specimen.CompareSpacing(local, m.Spacing, tolerance) == specimen.MatchYes {
			return m, specimen.MatchYes
		}
	}

	for _, m := range matches {
		if m.Spacing.Complete() {
			return m, specimen.CompareSpacing(local, m.Spacing, tolerance)
		}
	}

	first := matches[0]
	return first, specimen.CompareSpacing(local, first.Spacing, tolerance)
}
