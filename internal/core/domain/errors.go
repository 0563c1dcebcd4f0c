package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Record Errors.

	// ErrMalformedResult indicates a source returned a record that does not
	// have the expected shape.
	ErrMalformedResult = errors.New("malformed result")

	// ErrInvalidAction indicates a record carried an unparseable or
	// unsupported action.
	ErrInvalidAction = errors.New("invalid or unsupported action")

	// Source Errors.

	// ErrSlowSearchUsed indicates a local search ran without an index.
	// It is reported after all results have been produced.
	ErrSlowSearchUsed = errors.New("search performance is degraded")

	// ErrIndexCorrupted indicates the local search index is inconsistent
	// with the installed packages.
	ErrIndexCorrupted = errors.New("search index corrupted")

	// ErrUnsupportedSearch indicates a repository does not support the
	// requested search protocol.
	ErrUnsupportedSearch = errors.New("search protocol not supported")

	// ErrServerFailed indicates a repository could not be queried.
	ErrServerFailed = errors.New("server failed to respond")

	// Configuration Errors.

	// ErrInvalidAttribute indicates an output column name in a reserved
	// namespace that is not recognised.
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrMixedReturnTypes indicates a query mixes package and action terms.
	ErrMixedReturnTypes = errors.New("query mixes package and action terms")

	// ErrActionAttrsWithPackages indicates action-level columns were
	// requested for a query that returns packages.
	ErrActionAttrsWithPackages = errors.New("action level options cannot be used with queries that return packages")

	// ErrInvalidRepositoryURL indicates a repository origin could not be parsed.
	ErrInvalidRepositoryURL = errors.New("invalid repository URL")
)

// MalformedResultError reports a record that could not be unpacked.
type MalformedResultError struct {
	Source string
	Fields []string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("the repository returned a malformed result: %q", e.Fields)
}

func (e *MalformedResultError) Unwrap() error {
	return ErrMalformedResult
}

// InvalidActionError reports an action string that could not be parsed.
type InvalidActionError struct {
	Raw    string
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("the repository returned an invalid or unsupported action: %s: %q", e.Reason, e.Raw)
}

func (e *InvalidActionError) Unwrap() error {
	return ErrInvalidAction
}

// InvalidAttributeError reports an output column rejected at configuration time.
type InvalidAttributeError struct {
	Attribute string
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("invalid attribute '%s'", e.Attribute)
}

func (e *InvalidAttributeError) Unwrap() error {
	return ErrInvalidAttribute
}

// ServerError reports a single repository that failed to answer a query.
// Err is ErrUnsupportedSearch for protocol problems, otherwise it wraps the
// transport or status error.
type ServerError struct {
	Publisher string
	Origin    string
	Err       error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Publisher, e.Origin, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// Unsupported reports whether the server lacks the requested search protocol.
func (e *ServerError) Unsupported() bool {
	return errors.Is(e.Err, ErrUnsupportedSearch)
}

// ProblematicServersError collects every repository failure of one search.
type ProblematicServersError struct {
	Failed      []*ServerError
	Unsupported []*ServerError
}

// Add files a server error under the matching category.
func (e *ProblematicServersError) Add(err *ServerError) {
	if err.Unsupported() {
		e.Unsupported = append(e.Unsupported, err)
		return
	}
	e.Failed = append(e.Failed, err)
}

// Empty reports whether no failure was recorded.
func (e *ProblematicServersError) Empty() bool {
	return len(e.Failed) == 0 && len(e.Unsupported) == 0
}

func (e *ProblematicServersError) Error() string {
	var b strings.Builder
	b.WriteString("Some servers failed to respond appropriately:\n")
	for _, f := range e.Failed {
		fmt.Fprintf(&b, "%s:\n%v\n", serverLabel(f), f.Err)
	}
	if len(e.Unsupported) > 0 {
		b.WriteString("Some servers don't support requested search operation:\n")
	}
	for _, u := range e.Unsupported {
		fmt.Fprintf(&b, "%s:\n%v\n", serverLabel(u), u.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *ProblematicServersError) Unwrap() error {
	return ErrServerFailed
}

func serverLabel(e *ServerError) string {
	if e.Publisher == "" {
		return e.Origin
	}
	return e.Publisher
}

// IndexCorruptedError reports an index that must be rebuilt.
type IndexCorruptedError struct {
	Cause string
}

func (e *IndexCorruptedError) Error() string {
	return "search index corrupted: " + e.Cause
}

func (e *IndexCorruptedError) Unwrap() error {
	return ErrIndexCorrupted
}
