package reconcile

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/morphotools/morphoverify/internal/specimen"
)

// Summary is the final batch tally: counts per lookup status and per match
// outcome, plus the headline search/found/verified numbers.
type Summary struct {
	Rows     int
	Searched int // rows that produced a registry search
	Found    int // searches that matched a registry record
	Verified int // found records whose spacing verified

	ByStatus  map[Status]int
	ByOutcome map[specimen.MatchOutcome]int
}

// NewSummary returns an empty tally.
func NewSummary() *Summary {
	return &Summary{
		ByStatus:  make(map[Status]int),
		ByOutcome: make(map[specimen.MatchOutcome]int),
	}
}

// Add folds one reconciled record into the tally.
func (s *Summary) Add(rec Record) {
	s.Rows++
	s.ByStatus[rec.Status]++
	s.ByOutcome[rec.Outcome]++

	if rec.Status != StatusNoID {
		s.Searched++
	}
	if rec.Status == StatusFound {
		s.Found++
	}
	if rec.Outcome == specimen.MatchYes {
		s.Verified++
	}
}

// Render formats the tally as a terminal table.
func (s *Summary) Render() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Rows processed", s.Rows},
		{"Specimens searched", s.Searched},
		{"Found in MorphoSource", s.Found},
		{"Spacing verified", s.Verified},
	})
	t.AppendSeparator()

	for _, status := range []Status{StatusFound, StatusNotFound, StatusNoID, StatusError} {
		if n := s.ByStatus[status]; n > 0 {
			t.AppendRow(table.Row{"Status: " + string(status), n})
		}
	}
	for _, outcome := range []specimen.MatchOutcome{
		specimen.MatchYes,
		specimen.MatchNo,
		specimen.MatchMismatch,
		specimen.MatchMissingData,
	} {
		if n := s.ByOutcome[outcome]; n > 0 {
			t.AppendRow(table.Row{"Match: " + outcome.String(), n})
		}
	}

	return t.Render()
}
