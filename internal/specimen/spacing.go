package specimen

import (
	"math"
	"strconv"
	"strings"
)

// DefaultTolerance is the absolute per-axis difference allowed between local
// and registry voxel spacing values.
const DefaultTolerance = 0.001

// SpacingTriple holds per-axis voxel spacing values, each independently optional.
type SpacingTriple struct {
	X *float64
	Y *float64
	Z *float64
}

// Complete reports whether all three axes carry a value.
func (s SpacingTriple) Complete() bool {
	return s.X != nil && s.Y != nil && s.Z != nil
}

// MatchOutcome classifies a row's reconciliation result.
type MatchOutcome int

const (
	MatchNo MatchOutcome = iota
	MatchYes
	MatchMismatch
	MatchMissingData
)

// String returns the output table label for the outcome.
func (m MatchOutcome) String() string {
	switch m {
	case MatchYes:
		return "Yes"
	case MatchMismatch:
		return "Mismatch"
	case MatchMissingData:
		return "Missing Data"
	default:
		return "No"
	}
}

// CompareSpacing classifies local voxel spacing against registry spacing under
// an absolute per-axis tolerance. Any absent value on either side yields
// MatchMissingData. All three axes within tolerance yields MatchYes, a single
// out-of-tolerance axis forces MatchMismatch. A difference of exactly the
// tolerance counts as within (<=, not <).
func CompareSpacing(local, remote SpacingTriple, tolerance float64) MatchOutcome {
	if !local.Complete() || !remote.Complete() {
		return MatchMissingData
	}

	axes := [3][2]*float64{
		{local.X, remote.X},
		{local.Y, remote.Y},
		{local.Z, remote.Z},
	}
	for _, axis := range axes {
		if math.Abs(*axis[0]-*axis[1]) > tolerance {
			return MatchMismatch
		}
	}

	return MatchYes
}

// ParseSpacing converts a table cell to an optional spacing value. Blank cells
// and spreadsheet missing-value artifacts yield nil, as does anything that is
// not a number.
func ParseSpacing(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" || isMissingMarker(value) {
		return nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// FormatSpacing renders an optional spacing value for the output table, blank
// when absent.
func FormatSpacing(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'g', -1, 64)
}

// Float64 returns a pointer to v, a convenience for building triples.
func Float64(v float64) *float64 {
	return &v
}
