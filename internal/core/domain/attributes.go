package domain

import "strings"

// Reserved output column names.
const (
	AttrActionHash      = "action.hash"
	AttrActionKey       = "action.key"
	AttrActionName      = "action.name"
	AttrActionRaw       = "action.raw"
	AttrPkgName         = "pkg.name"
	AttrPkgFMRI         = "pkg.fmri"
	AttrPkgShortFMRI    = "pkg.shortfmri"
	AttrPkgPublisher    = "pkg.publisher"
	AttrSearchMatch     = "search.match"
	AttrSearchMatchType = "search.match_type"
)

// ListAttributes are the reserved names accepted by listing commands.
var ListAttributes = []string{
	AttrActionHash, AttrActionKey, AttrActionName, AttrActionRaw,
	AttrPkgName, AttrPkgFMRI, AttrPkgShortFMRI, AttrPkgPublisher,
}

// ListPrefixes are the reserved namespaces checked by listing commands.
var ListPrefixes = []string{"action."}

// SearchAttributes are the reserved names accepted by the search command.
var SearchAttributes = append(append([]string(nil), ListAttributes...), AttrSearchMatch, AttrSearchMatchType)

// SearchPrefixes are the reserved namespaces checked by the search command.
var SearchPrefixes = []string{"action.", "search."}

// Default search columns and their header labels.
var (
	DefaultActionAttributes = []string{AttrSearchMatchType, AttrActionName, AttrSearchMatch, AttrPkgShortFMRI}
	DefaultActionHeaders    = []string{"index", "action", "value", "package"}

	DefaultPackageAttributes = []string{AttrPkgShortFMRI, AttrPkgPublisher}
	DefaultPackageHeaders    = []string{"package", "publisher"}
)

// Justification is the alignment of a column.
// The values double as the sign of a printf width.
type Justification int

const (
	JustLeft    Justification = -1
	JustUnknown Justification = 0
	JustRight   Justification = 1
)

// ValidateAttributes rejects names that fall into a reserved namespace but
// are not in reference. Names outside every prefix are always accepted.
func ValidateAttributes(attrs, reference, prefixes []string) error {
	known := make(map[string]struct{}, len(reference))
	for _, r := range reference {
		known[r] = struct{}{}
	}
	for _, a := range attrs {
		for _, p := range prefixes {
			if !strings.HasPrefix(a, p) {
				continue
			}
			if _, ok := known[a]; !ok {
				return &InvalidAttributeError{Attribute: a}
			}
		}
	}
	return nil
}

// IsActionLevel reports whether the column only makes sense for action results.
func IsActionLevel(attr string) bool {
	return strings.HasPrefix(attr, "action.") || strings.HasPrefix(attr, "search.match")
}

// StaticJustification returns the justification known from the name alone.
func StaticJustification(attr string) Justification {
	switch attr {
	case AttrActionName, AttrActionKey, AttrActionRaw,
		AttrPkgName, AttrPkgFMRI, AttrPkgShortFMRI, AttrPkgPublisher:
		return JustLeft
	default:
		return JustUnknown
	}
}

// Justifications maps StaticJustification over attrs.
func Justifications(attrs []string) []Justification {
	justs := make([]Justification, len(attrs))
	for i, a := range attrs {
		justs[i] = StaticJustification(a)
	}
	return justs
}
