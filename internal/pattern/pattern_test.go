package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_WildcardSegmentCount(t *testing.T) {
	p := MustParse("a.*.c")

	assert.True(t, p.Match("a.N.c"), "wildcard matches placeholder")
	assert.True(t, p.Match("a.foo.c"))
	assert.False(t, p.Match("a.N.N.c"), "wildcard matches exactly one segment")
	assert.False(t, p.Match("a.c"))
	assert.False(t, p.Match("a.foo.d"))
}

func TestMatch_TrailingWildcard(t *testing.T) {
	p := MustParse("a.*")
	require.True(t, p.Trailing())

	assert.True(t, p.Match("a.b"))
	assert.True(t, p.Match("a.b.c"))
	assert.True(t, p.Match("a.N.N.N"))
	assert.False(t, p.Match("a"), "trailing wildcard needs at least one segment")
	assert.False(t, p.Match("b.c"))
}

func TestMatch_MixedWildcards(t *testing.T) {
	p := MustParse("node.*.disk.*.*")

	assert.True(t, p.Match("node.N.disk.N.reads"))
	assert.True(t, p.Match("node.N.disk.N.xfers.in"))
	assert.False(t, p.Match("node.N.disk.N"))
	assert.False(t, p.Match("node.N.net.N.reads"))
}

func TestMatch_Exact(t *testing.T) {
	p := MustParse("cluster.cpu.user.avg")

	assert.True(t, p.Match("cluster.cpu.user.avg"))
	assert.False(t, p.Match("cluster.cpu.user"))
	assert.False(t, p.Match("cluster.cpu.user.avg.x"))
	assert.False(t, p.Match("Cluster.cpu.user.avg"), "case-sensitive")
	assert.False(t, p.Match("cluster.cpu.use.avg"), "no substring matching")
}

func TestMatch_SpecExample(t *testing.T) {
	p := MustParse("node.N.disk.N.*")
	assert.True(t, p.Match("node.N.disk.N.reads"))
}

func TestParse_CanonicalizesNumericLiterals(t *testing.T) {
	p := MustParse("node.1.disk.*")
	assert.Equal(t, "node.N.disk.*", p.String())
	assert.True(t, p.Match("node.N.disk.reads"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"empty segment", "a..b"},
		{"trailing separator", "a.b."},
		{"partial wildcard", "a.b*.c"},
		{"whitespace", "a.b c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestZeroPatternMatchesNothing(t *testing.T) {
	var p Pattern
	assert.True(t, p.IsZero())
	assert.False(t, p.Match("a"))
	assert.False(t, MustParse("a").Match(""))
}

func TestTextRoundTrip(t *testing.T) {
	p := MustParse("node.N.disk.*")
	text, err := p.MarshalText()
	require.NoError(t, err)

	var back Pattern
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, p, back)
}
