package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Query is a parsed search query.
type Query struct {
	// Text is the query as the user typed it.
	Text string

	// Terms are the individual terms with any <> package markers removed.
	Terms []string

	// CaseSensitive disables case folding when matching.
	CaseSensitive bool

	// ReturnType states whether the query yields actions or packages.
	ReturnType ReturnType
}

// ParseQuery splits text into terms. A term written "<term>" asks for
// package results; mixing such terms with plain ones is an error. When
// returnActions is false every term yields packages.
func ParseQuery(text string, caseSensitive, returnActions bool) (Query, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Query{}, fmt.Errorf("%w: at least one search term must be provided", ErrInvalidInput)
	}

	q := Query{Text: strings.Join(fields, " "), CaseSensitive: caseSensitive}
	var pkgTerms, actionTerms int
	for _, f := range fields {
		if len(f) > 2 && strings.HasPrefix(f, "<") && strings.HasSuffix(f, ">") {
			pkgTerms++
			q.Terms = append(q.Terms, f[1:len(f)-1])
			continue
		}
		actionTerms++
		q.Terms = append(q.Terms, f)
	}

	switch {
	case pkgTerms > 0 && actionTerms > 0:
		return Query{}, fmt.Errorf("%w: %q", ErrMixedReturnTypes, text)
	case pkgTerms > 0 || !returnActions:
		q.ReturnType = ReturnPackages
	default:
		q.ReturnType = ReturnActions
	}
	return q, nil
}

// Repository is a remote package repository.
type Repository struct {
	// Publisher is the publisher prefix served by the repository.
	Publisher string

	// Origin is the base URL of the repository.
	Origin string
}

// ParseOrigin validates a repository URL. An origin without a scheme is
// retried with "http://" prepended.
func ParseOrigin(origin string) (string, error) {
	if validOrigin(origin) {
		return strings.TrimRight(origin, "/"), nil
	}
	if !strings.Contains(origin, "://") && validOrigin("http://"+origin) {
		return strings.TrimRight("http://"+origin, "/"), nil
	}
	return "", fmt.Errorf("%w: %s is not a valid repository URL", ErrInvalidRepositoryURL, origin)
}

func validOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}

// SearchOptions configures one search invocation.
type SearchOptions struct {
	// Local searches the local index.
	Local bool

	// Remote searches the configured (or given) repositories.
	Remote bool

	// Servers overrides the configured repositories.
	Servers []Repository

	// CaseSensitive disables case folding.
	CaseSensitive bool

	// ReturnActions asks for action results; false asks for packages.
	ReturnActions bool

	// PruneVersions asks repositories for the newest version only.
	PruneVersions bool

	// Attributes are the requested output columns; empty selects defaults.
	Attributes []string

	// DisplayHeaders selects the headered columnar layout; false gives
	// tab-separated output.
	DisplayHeaders bool

	// JSON emits one JSON object per line instead of columns.
	JSON bool
}

// ContentsOptions configures a contents listing.
type ContentsOptions struct {
	// Packages are the package name patterns to list; empty lists all.
	Packages []string

	// Attributes are the output columns; empty selects "path".
	Attributes []string

	// SortAttributes names the columns to sort on; the first is used.
	SortAttributes []string

	// ActionTypes restricts the listing to these action types.
	ActionTypes []string

	// DisplayHeaders selects the headered columnar layout.
	DisplayHeaders bool
}

// ExitStatus is the process exit classification of a command.
type ExitStatus int

const (
	ExitOK      ExitStatus = 0
	ExitOops    ExitStatus = 1
	ExitBadOpt  ExitStatus = 2
	ExitPartial ExitStatus = 3
)

// String returns a short label for the status.
func (s ExitStatus) String() string {
	switch s {
	case ExitOK:
		return "success"
	case ExitOops:
		return "failure"
	case ExitBadOpt:
		return "usage"
	case ExitPartial:
		return "partial"
	default:
		return fmt.Sprintf("exit(%d)", int(s))
	}
}
