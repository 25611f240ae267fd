// Package specimen holds the canonical specimen identifier and the voxel
// spacing comparison used to verify local records against the registry.
package specimen

import (
	"strings"
)

// Identifier is the canonical specimen key of form institution:collection:catalog.
type Identifier string

// String returns the identifier as a plain string.
func (id Identifier) String() string {
	return string(id)
}

// Slug returns a filesystem-safe form of the identifier for dump file names.
func (id Identifier) Slug() string {
	return strings.ReplaceAll(string(id), ":", "_")
}

// BuildIdentifier constructs a canonical identifier from institution,
// collection and catalog codes. Components are trimmed of whitespace; if any
// component is blank after trimming the identifier is invalid and ok is false.
// Spreadsheet exports leak the literals "nan" and "None" into blank cells,
// those count as blank too.
func BuildIdentifier(institution, collection, catalog string) (Identifier, bool) {
	institution = strings.TrimSpace(institution)
	collection = strings.TrimSpace(collection)
	catalog = strings.TrimSpace(catalog)

	for _, component := range []string{institution, collection, catalog} {
		if component == "" || isMissingMarker(component) {
			return "", false
		}
	}

	return Identifier(institution + ":" + collection + ":" + catalog), true
}

// isMissingMarker reports whether a cell value is a spreadsheet missing-value artifact.
func isMissingMarker(value string) bool {
	switch strings.ToLower(value) {
	case "nan", "none":
		return true
	}
	return false
}
