package domain

import (
	"path"
	"strings"
)

// TokenBasename is the kind of the token holding the last element of a path.
const TokenBasename = "basename"

// Token is one searchable value of an action.
type Token struct {
	// Kind names what the value is: an attribute name, "basename", or
	// for set actions the name of the set.
	Kind  string
	Value string
}

// MatchField returns the value reported as the match of a result built
// from this token: the value itself for set actions, the kind otherwise.
func (t Token) MatchField(a *Action) string {
	if a.IsAttribute() {
		return t.Value
	}
	return t.Kind
}

// ActionTokens lists the searchable tokens of a.
func ActionTokens(a *Action) []Token {
	var tokens []Token
	if a.IsAttribute() {
		name := a.Attr("name")
		for _, v := range a.Values("value") {
			tokens = append(tokens, Token{Kind: name, Value: v})
		}
		return tokens
	}

	for _, attr := range a.AttrNames() {
		for _, v := range a.Values(attr) {
			tokens = append(tokens, Token{Kind: attr, Value: v})
		}
	}
	if a.KeyAttr() == "path" {
		tokens = append(tokens, Token{Kind: TokenBasename, Value: path.Base(a.Key())})
	}
	return tokens
}

// MatchTerm reports whether value matches term under the query's case
// rule. Terms may use '*' and '?' wildcards, which also match '/'.
func (q Query) MatchTerm(term, value string) bool {
	if !q.CaseSensitive {
		term, value = strings.ToLower(term), strings.ToLower(value)
	}
	return globMatch(term, value)
}

// MatchAny returns the first term value matches, if any.
func (q Query) MatchAny(value string) (string, bool) {
	for _, term := range q.Terms {
		if q.MatchTerm(term, value) {
			return term, true
		}
	}
	return "", false
}

// globMatch matches s against pattern rune by rune, so '?' stands for one
// character like SQLite GLOB.
func globMatch(pattern, value string) bool {
	pat, s := []rune(pattern), []rune(value)
	// px and sx mark the position to retry from after the last '*'.
	p, i := 0, 0
	px, sx := -1, -1
	for i < len(s) {
		switch {
		case p < len(pat) && (pat[p] == '?' || pat[p] == s[i]):
			p++
			i++
		case p < len(pat) && pat[p] == '*':
			px, sx = p, i
			p++
		case px >= 0:
			sx++
			p, i = px+1, sx
		default:
			return false
		}
	}
	for p < len(pat) && pat[p] == '*' {
		p++
	}
	return p == len(pat)
}
