package domain

import (
	"strings"
)

// Action type names.
const (
	ActionFile      = "file"
	ActionDir       = "dir"
	ActionLink      = "link"
	ActionHardlink  = "hardlink"
	ActionSet       = "set"
	ActionDepend    = "depend"
	ActionUser      = "user"
	ActionGroup     = "group"
	ActionDriver    = "driver"
	ActionLicense   = "license"
	ActionLegacy    = "legacy"
	ActionSignature = "signature"
)

// keyAttrs maps each supported action type to the attribute that identifies it.
var keyAttrs = map[string]string{
	ActionFile:      "path",
	ActionDir:       "path",
	ActionLink:      "path",
	ActionHardlink:  "path",
	ActionSet:       "name",
	ActionDepend:    "fmri",
	ActionUser:      "username",
	ActionGroup:     "groupname",
	ActionDriver:    "name",
	ActionLicense:   "license",
	ActionLegacy:    "pkg",
	ActionSignature: "value",
}

// KnownActionType reports whether name is a supported action type.
func KnownActionType(name string) bool {
	_, ok := keyAttrs[name]
	return ok
}

// Action is one parsed line of a package manifest.
type Action struct {
	name  string
	hash  string
	raw   string
	order []string
	attrs map[string][]string
}

// ParseAction parses the textual form of an action:
//
//	<type> [<hash>] key=value key="quoted value" ...
//
// Repeated keys accumulate values in order.
func ParseAction(s string) (*Action, error) {
	raw := strings.TrimRight(s, " \t\r\n")
	tokens, err := splitActionTokens(raw)
	if err != nil {
		return nil, &InvalidActionError{Raw: raw, Reason: err.Error()}
	}
	if len(tokens) == 0 {
		return nil, &InvalidActionError{Raw: raw, Reason: "empty action"}
	}

	a := &Action{
		name:  tokens[0].key,
		raw:   raw,
		attrs: make(map[string][]string),
	}
	if tokens[0].hasValue {
		return nil, &InvalidActionError{Raw: raw, Reason: "missing action type"}
	}
	keyAttr, ok := keyAttrs[a.name]
	if !ok {
		return nil, &InvalidActionError{Raw: raw, Reason: "unknown action type '" + a.name + "'"}
	}

	for i, tok := range tokens[1:] {
		if !tok.hasValue {
			if i == 0 {
				a.hash = tok.key
				continue
			}
			return nil, &InvalidActionError{Raw: raw, Reason: "attribute '" + tok.key + "' has no value"}
		}
		if tok.key == "" {
			return nil, &InvalidActionError{Raw: raw, Reason: "empty attribute name"}
		}
		if _, seen := a.attrs[tok.key]; !seen {
			a.order = append(a.order, tok.key)
		}
		a.attrs[tok.key] = append(a.attrs[tok.key], tok.value)
	}

	if _, ok := a.attrs[keyAttr]; !ok {
		return nil, &InvalidActionError{Raw: raw, Reason: "missing key attribute '" + keyAttr + "'"}
	}
	return a, nil
}

// Name returns the action type, e.g. "file".
func (a *Action) Name() string {
	return a.name
}

// Hash returns the payload hash, or "" for actions without a payload.
func (a *Action) Hash() string {
	return a.hash
}

// Raw returns the action text as it was parsed.
func (a *Action) Raw() string {
	return a.raw
}

// KeyAttr returns the name of the identifying attribute for this action type.
func (a *Action) KeyAttr() string {
	return keyAttrs[a.name]
}

// Key returns the value of the identifying attribute.
func (a *Action) Key() string {
	return a.Attr(a.KeyAttr())
}

// IsAttribute reports whether this is a "set" action.
// Set actions carry one name and possibly many values.
func (a *Action) IsAttribute() bool {
	return a.name == ActionSet
}

// Has reports whether the action carries the named attribute.
func (a *Action) Has(attr string) bool {
	_, ok := a.attrs[attr]
	return ok
}

// Attr returns the display value of the named attribute: the first of
// its values, or "" when absent.
func (a *Action) Attr(attr string) string {
	if vs := a.attrs[attr]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns every value of the named attribute.
func (a *Action) Values(attr string) []string {
	return a.attrs[attr]
}

// AttrNames returns attribute names in the order they first appeared.
func (a *Action) AttrNames() []string {
	return append([]string(nil), a.order...)
}

// String returns the raw action text.
func (a *Action) String() string {
	return a.raw
}

type actionToken struct {
	key      string
	value    string
	hasValue bool
}

// splitActionTokens tokenises an action on unquoted whitespace.
func splitActionTokens(s string) ([]actionToken, error) {
	var tokens []actionToken
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}

		start := i
		for i < len(s) && s[i] != '=' && s[i] != ' ' && s[i] != '\t' {
			i++
		}
		key := s[start:i]
		if i >= len(s) || s[i] != '=' {
			tokens = append(tokens, actionToken{key: key})
			continue
		}
		i++ // '='

		value, next, err := readActionValue(s, i)
		if err != nil {
			return nil, err
		}
		i = next
		tokens = append(tokens, actionToken{key: key, value: value, hasValue: true})
	}
	return tokens, nil
}

func readActionValue(s string, i int) (string, int, error) {
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		quote := s[i]
		i++
		var b strings.Builder
		for i < len(s) {
			c := s[i]
			switch {
			case c == '\\' && i+1 < len(s):
				b.WriteByte(s[i+1])
				i += 2
			case c == quote:
				return b.String(), i + 1, nil
			default:
				b.WriteByte(c)
				i++
			}
		}
		return "", i, errUnterminatedQuote
	}

	start := i
	for i < len(s) && s[i] != ' ' && s[i] != '\t' {
		i++
	}
	return s[start:i], i, nil
}

type actionParseError string

func (e actionParseError) Error() string { return string(e) }

const errUnterminatedQuote = actionParseError("unterminated quoted value")
