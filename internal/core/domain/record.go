package domain

// ReturnType describes what a query yields.
type ReturnType int

const (
	// ReturnActions means each record names a package, a match token and an action.
	ReturnActions ReturnType = iota

	// ReturnPackages means each record names a package only.
	ReturnPackages
)

// ReturnUnknown marks a record whose shape could not be determined.
// Such records always classify as malformed.
const ReturnUnknown ReturnType = -1

// String returns the wire name of the return type.
func (r ReturnType) String() string {
	switch r {
	case ReturnActions:
		return "actions"
	case ReturnPackages:
		return "packages"
	default:
		return "unknown"
	}
}

// ParseReturnType parses the wire name of a return type.
func ParseReturnType(s string) (ReturnType, bool) {
	switch s {
	case "actions":
		return ReturnActions, true
	case "packages":
		return ReturnPackages, true
	default:
		return 0, false
	}
}

// RawRecord is one match as produced by a search source.
// Its Fields are opaque until classified.
type RawRecord struct {
	// Query is the index of the query term that produced the match.
	Query int

	// Publisher is the publisher of the source, used when the FMRI has none.
	Publisher string

	// ReturnType states how Fields should be unpacked.
	ReturnType ReturnType

	// Fields is (fmri, match, action) for action results and (fmri) for
	// package results.
	Fields []string
}

// NormalizedRecord is a classified match ready for projection.
type NormalizedRecord struct {
	// Package is the package containing the match.
	Package PackageRef

	// Action is the matched action; nil for package results.
	Action *Action

	// Publisher is the publisher the match was obtained from.
	Publisher string

	// Match is the token shown to the user as the matching value.
	Match string

	// MatchKind states what the match refers to, e.g. "basename" or the
	// set action's name. Always derived from Action when Action is set.
	MatchKind string
}

// Line is one row of output, one value per requested column.
type Line []string

// Empty reports whether every value in the line is "".
func (l Line) Empty() bool {
	for _, v := range l {
		if v != "" {
			return false
		}
	}
	return true
}

// Equal reports whether two lines hold the same values.
func (l Line) Equal(o Line) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}
