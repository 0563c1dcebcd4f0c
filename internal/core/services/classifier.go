package services

import (
	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// actionFields is the arity of an action-level record: (fmri, match, action).
const actionFields = 3

// ClassifyRecord turns a raw record into a normalized one.
//
// Action records must unpack into exactly (fmri, match, action). The
// action is parsed and the match is rewritten into the token the user
// should see. Failures are *domain.MalformedResultError or
// *domain.InvalidActionError; the record should be dropped.
func ClassifyRecord(rec domain.RawRecord) (domain.NormalizedRecord, error) {
	switch rec.ReturnType {
	case domain.ReturnActions:
		return classifyAction(rec)
	case domain.ReturnPackages:
		return classifyPackage(rec)
	default:
		return domain.NormalizedRecord{}, &domain.MalformedResultError{Fields: rec.Fields}
	}
}

func classifyAction(rec domain.RawRecord) (domain.NormalizedRecord, error) {
	if len(rec.Fields) != actionFields {
		return domain.NormalizedRecord{}, &domain.MalformedResultError{Fields: rec.Fields}
	}

	pkg, err := domain.ParsePackageRef(rec.Fields[0])
	if err != nil {
		return domain.NormalizedRecord{}, &domain.MalformedResultError{Fields: rec.Fields}
	}

	action, err := domain.ParseAction(rec.Fields[2])
	if err != nil {
		return domain.NormalizedRecord{}, err
	}

	match := rec.Fields[1]
	return domain.NormalizedRecord{
		Package:   pkg,
		Action:    action,
		Publisher: rec.Publisher,
		Match:     matchingToken(action, match),
		MatchKind: matchingKind(action, match),
	}, nil
}

func classifyPackage(rec domain.RawRecord) (domain.NormalizedRecord, error) {
	if len(rec.Fields) != 1 {
		return domain.NormalizedRecord{}, &domain.MalformedResultError{Fields: rec.Fields}
	}
	pkg, err := domain.ParsePackageRef(rec.Fields[0])
	if err != nil {
		return domain.NormalizedRecord{}, &domain.MalformedResultError{Fields: rec.Fields}
	}
	return domain.NormalizedRecord{Package: pkg, Publisher: rec.Publisher}, nil
}

// matchingToken returns the value that matched the query. For set actions
// the source already supplies the matching value; for other actions match
// names the attribute that matched.
func matchingToken(a *domain.Action, match string) string {
	if a.IsAttribute() {
		return match
	}
	if match == domain.TokenBasename {
		return a.Attr("path")
	}
	if v := a.Attr(match); v != "" {
		return v
	}
	return a.Key()
}

// matchingKind returns what the match refers to: the set action's own
// name for set actions, otherwise the attribute reported by the source.
func matchingKind(a *domain.Action, match string) string {
	if !a.IsAttribute() {
		return match
	}
	return a.Attr("name")
}
