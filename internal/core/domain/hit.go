package domain

// IndexHit is one token of an indexed action that matched a query term.
type IndexHit struct {
	Package   PackageRef
	Publisher string
	Action    *Action
	Token     Token
	Term      string
}

// HitRecords turns index hits into raw records for q. A package only
// contributes when every term of the query matched one of its tokens.
// Action queries yield one record per hit; package queries yield one
// record per package. Order follows the hits.
func HitRecords(q Query, hits []IndexHit) []RawRecord {
	matched := make(map[string]map[string]struct{})
	for _, h := range hits {
		key := h.Package.String()
		if matched[key] == nil {
			matched[key] = make(map[string]struct{})
		}
		matched[key][h.Term] = struct{}{}
	}

	terms := make(map[string]struct{}, len(q.Terms))
	for _, t := range q.Terms {
		terms[t] = struct{}{}
	}
	complete := func(pkg string) bool {
		for t := range terms {
			if _, ok := matched[pkg][t]; !ok {
				return false
			}
		}
		return true
	}

	var records []RawRecord
	seen := make(map[string]struct{})
	for _, h := range hits {
		key := h.Package.String()
		if !complete(key) {
			continue
		}
		if q.ReturnType == ReturnPackages {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, RawRecord{
				Publisher:  h.Publisher,
				ReturnType: ReturnPackages,
				Fields:     []string{key},
			})
			continue
		}
		records = append(records, RawRecord{
			Publisher:  h.Publisher,
			ReturnType: ReturnActions,
			Fields:     []string{key, h.Token.MatchField(h.Action), h.Action.Raw()},
		})
	}
	return records
}
