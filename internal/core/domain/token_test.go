package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionTokens_Path(t *testing.T) {
	a, err := ParseAction("file abc123 path=usr/bin/ls mode=0555")
	require.NoError(t, err)

	tokens := ActionTokens(a)
	assert.Contains(t, tokens, Token{Kind: "path", Value: "usr/bin/ls"})
	assert.Contains(t, tokens, Token{Kind: "mode", Value: "0555"})
	assert.Contains(t, tokens, Token{Kind: TokenBasename, Value: "ls"})
}

func TestActionTokens_Set(t *testing.T) {
	a, err := ParseAction(`set name=info.classification value="Development/C" value=System`)
	require.NoError(t, err)

	tokens := ActionTokens(a)
	assert.Equal(t, []Token{
		{Kind: "info.classification", Value: "Development/C"},
		{Kind: "info.classification", Value: "System"},
	}, tokens)
	assert.Equal(t, "System", tokens[1].MatchField(a))
}

func TestToken_MatchFieldUsesKind(t *testing.T) {
	a, err := ParseAction("dir path=etc/ssh")
	require.NoError(t, err)
	assert.Equal(t, TokenBasename, Token{Kind: TokenBasename, Value: "ssh"}.MatchField(a))
}

func TestQuery_MatchTerm(t *testing.T) {
	tests := []struct {
		name          string
		term          string
		value         string
		caseSensitive bool
		want          bool
	}{
		{"exact", "ls", "ls", false, true},
		{"star suffix", "libc*", "libc.so.1", false, true},
		{"star crosses slash", "*ls", "usr/bin/ls", false, true},
		{"question mark", "l?", "ls", false, true},
		{"no match", "vi", "vim", false, false},
		{"case folded", "LS", "ls", false, true},
		{"case sensitive", "LS", "ls", true, false},
		{"star only", "*", "", false, true},
		{"backtracking", "*a*b", "xaxxab", false, true},
		{"question mark multibyte", "caf?", "café", false, true},
		{"question mark one rune", "caf??", "café", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{CaseSensitive: tt.caseSensitive}
			assert.Equal(t, tt.want, q.MatchTerm(tt.term, tt.value))
		})
	}
}

func TestQuery_MatchAny(t *testing.T) {
	q := Query{Terms: []string{"vim", "ls"}}

	term, ok := q.MatchAny("ls")
	assert.True(t, ok)
	assert.Equal(t, "ls", term)

	_, ok = q.MatchAny("cat")
	assert.False(t, ok)
}
