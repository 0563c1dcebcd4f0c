package services

import (
	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// ProjectorOptions configures a Projector.
type ProjectorOptions struct {
	// ActionTypes keeps only actions of these types when non-empty.
	ActionTypes []string

	// ShowAll keeps lines whose values are all empty.
	ShowAll bool

	// RemoveDuplicates drops a line equal to the line before it.
	RemoveDuplicates bool
}

// Projector maps normalized records onto output columns.
type Projector struct {
	attrs       []string
	actionTypes map[string]struct{}
	showAll     bool
	dedup       bool
}

// NewProjector creates a projector for the given columns.
func NewProjector(attrs []string, opts ProjectorOptions) *Projector {
	p := &Projector{
		attrs:   append([]string(nil), attrs...),
		showAll: opts.ShowAll,
		dedup:   opts.RemoveDuplicates,
	}
	if len(opts.ActionTypes) > 0 {
		p.actionTypes = make(map[string]struct{}, len(opts.ActionTypes))
		for _, t := range opts.ActionTypes {
			p.actionTypes[t] = struct{}{}
		}
	}
	return p
}

// Attributes returns the projected columns.
func (p *Projector) Attributes() []string {
	return p.attrs
}

// Project produces one line per retained record, in input order.
//
// When duplicates are removed, last is the final line of the previous page:
// a first line equal to it is suppressed, so page boundaries never change
// the output. last itself is never returned.
func (p *Projector) Project(records []domain.NormalizedRecord, last domain.Line) []domain.Line {
	prev := last
	if !p.dedup {
		prev = nil
	}

	lines := make([]domain.Line, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !p.keepType(rec) {
			continue
		}

		line := make(domain.Line, len(p.attrs))
		for j, attr := range p.attrs {
			line[j] = resolveAttribute(rec, attr)
		}

		if line.Empty() && !p.showAll {
			continue
		}
		if p.dedup && prev != nil && prev.Equal(line) {
			continue
		}
		lines = append(lines, line)
		prev = line
	}
	return lines
}

func (p *Projector) keepType(rec *domain.NormalizedRecord) bool {
	if p.actionTypes == nil {
		return true
	}
	if rec.Action == nil {
		return false
	}
	_, ok := p.actionTypes[rec.Action.Name()]
	return ok
}

// resolveAttribute returns the value of one column for a record. An
// attribute literally present on the action wins over a reserved name.
// Unknown names resolve to "".
func resolveAttribute(rec *domain.NormalizedRecord, attr string) string {
	a := rec.Action
	if a != nil && a.Has(attr) {
		return a.Attr(attr)
	}

	switch attr {
	case domain.AttrActionName:
		if a != nil {
			return a.Name()
		}
	case domain.AttrActionKey:
		if a != nil {
			return a.Key()
		}
	case domain.AttrActionRaw:
		if a != nil {
			return a.Raw()
		}
	case domain.AttrActionHash:
		if a != nil {
			return a.Hash()
		}
	case domain.AttrPkgName:
		return rec.Package.Name()
	case domain.AttrPkgFMRI:
		return rec.Package.String()
	case domain.AttrPkgShortFMRI:
		return rec.Package.Short()
	case domain.AttrPkgPublisher:
		if pub := rec.Package.Publisher(); pub != "" {
			return pub
		}
		return rec.Publisher
	case domain.AttrSearchMatch:
		return rec.Match
	case domain.AttrSearchMatchType:
		return rec.MatchKind
	}
	return ""
}
