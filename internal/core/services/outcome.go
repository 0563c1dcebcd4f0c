package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// DiagnosticPrefix starts every user-facing diagnostic line.
const DiagnosticPrefix = "pkgsearch: "

// Diagnostic texts shown to the user.
const (
	msgIndexCorrupted = "The search index appears corrupted.  Please rebuild the index with 'pkgsearch index rebuild'."
	msgSlowSearch     = "Search performance is degraded.\nRun 'pkgsearch index rebuild' to improve search speed."
)

// OutcomeAggregator tracks whether a search produced usable records and
// whether anything failed, and reconciles that into an exit status.
type OutcomeAggregator struct {
	diag io.Writer

	good    bool
	bad     bool
	slow    bool
	servers domain.ProblematicServersError
	fatal   error
}

// NewOutcomeAggregator creates an aggregator writing diagnostics to diag.
func NewOutcomeAggregator(diag io.Writer) *OutcomeAggregator {
	return &OutcomeAggregator{diag: diag}
}

// RecordAccepted notes a record that classified successfully.
func (o *OutcomeAggregator) RecordAccepted() {
	o.good = true
}

// RecordRejected notes a dropped record and reports it once.
func (o *OutcomeAggregator) RecordRejected(source string, err error) {
	o.bad = true
	logger.Debug("record from %s rejected: %v", source, err)
	writeDiagnostic(o.diag, err.Error())
}

// SourceFailed files the error that ended a source. It returns true when
// the error is fatal and the search must stop after flushing.
func (o *OutcomeAggregator) SourceFailed(source string, err error) bool {
	var serverErr *domain.ServerError
	var serversErr *domain.ProblematicServersError

	switch {
	case errors.Is(err, domain.ErrSlowSearchUsed):
		logger.Info("source %s used the slow search fallback", source)
		o.slow = true
		return false
	case errors.As(err, &serverErr):
		logger.Warn("source %s failed: %v", source, err)
		o.servers.Add(serverErr)
		o.bad = true
		return false
	case errors.As(err, &serversErr):
		logger.Warn("source %s reported failing servers", source)
		o.servers.Failed = append(o.servers.Failed, serversErr.Failed...)
		o.servers.Unsupported = append(o.servers.Unsupported, serversErr.Unsupported...)
		o.bad = true
		return false
	default:
		logger.Warn("source %s failed fatally: %v", source, err)
		o.fatal = err
		return true
	}
}

// Good reports whether at least one record was usable.
func (o *OutcomeAggregator) Good() bool {
	return o.good
}

// Bad reports whether any record or source failed.
func (o *OutcomeAggregator) Bad() bool {
	return o.bad
}

// Fatal returns the error that stopped the search, if any.
func (o *OutcomeAggregator) Fatal() error {
	return o.fatal
}

// Finish writes the deferred diagnostics and returns the exit status.
func (o *OutcomeAggregator) Finish() domain.ExitStatus {
	if o.fatal != nil {
		switch {
		case errors.Is(o.fatal, context.Canceled), errors.Is(o.fatal, context.DeadlineExceeded):
		case errors.Is(o.fatal, domain.ErrIndexCorrupted):
			writeDiagnostic(o.diag, msgIndexCorrupted)
		default:
			writeDiagnostic(o.diag, o.fatal.Error())
		}
		return domain.ExitOops
	}

	if !o.servers.Empty() {
		writeDiagnostic(o.diag, o.servers.Error())
	}
	if o.slow {
		writeDiagnostic(o.diag, msgSlowSearch)
	}
	return Classify(o.good, o.bad)
}

// Classify maps the accumulated flags to an exit status.
func Classify(good, bad bool) domain.ExitStatus {
	switch {
	case good && bad:
		return domain.ExitPartial
	case good:
		return domain.ExitOK
	default:
		return domain.ExitOops
	}
}

// writeDiagnostic prefixes text with the program name. Leading whitespace
// stays ahead of the prefix.
func writeDiagnostic(w io.Writer, text string) {
	if w == nil {
		return
	}
	trimmed := strings.TrimLeft(text, " \t\n")
	ws := text[:len(text)-len(trimmed)]
	_, _ = fmt.Fprintln(w, ws+DiagnosticPrefix+trimmed)
}
