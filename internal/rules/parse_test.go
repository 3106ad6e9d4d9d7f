package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocks_Basic(t *testing.T) {
	src := `# disk tags
::::::
:::tags
disk-io
performance
:::keys
node.N.disk.N.*

::::::
:::tags
cpu
:::keys
node.N.cpu.*
cluster.cpu.*
`
	blocks, err := ParseBlocks(strings.NewReader(src), "tags.hexa")
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	tags := blocks[0].Field("tags")
	require.NotNil(t, tags)
	assert.Equal(t, 3, tags.Line)
	require.Len(t, tags.Values, 2)
	assert.Equal(t, Value{Text: "disk-io", Line: 4}, tags.Values[0])
	assert.Equal(t, Value{Text: "performance", Line: 5}, tags.Values[1])

	keys := blocks[1].Field("keys")
	require.NotNil(t, keys)
	assert.Len(t, keys.Values, 2)
	assert.Equal(t, 14, keys.Values[1].Line)
}

func TestParseBlocks_LeadingMarkerOptional(t *testing.T) {
	src := ":::tags\nnet\n:::keys\nnode.N.net.*\n"
	blocks, err := ParseBlocks(strings.NewReader(src), "")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 1, blocks[0].Line)
}

func TestParseBlocks_IgnoresBlankAndComments(t *testing.T) {
	src := "\n   \n# only comments\n  # indented comment\n::::::\n::::::\n"
	blocks, err := ParseBlocks(strings.NewReader(src), "")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestParseBlocks_TrimsWhitespace(t *testing.T) {
	src := "  :::tags  \n\t disk-io \t\n"
	blocks, err := ParseBlocks(strings.NewReader(src), "")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "disk-io", blocks[0].Field("tags").Values[0].Text)
}

func TestParseBlocks_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		text   string
		reason string
	}{
		{
			name:   "value before any label",
			src:    "# header\n\nnode.N.disk.N.*\n:::tags\ndisk\n",
			line:   3,
			text:   "node.N.disk.N.*",
			reason: "value before any label",
		},
		{
			name:   "value after block marker",
			src:    ":::tags\ndisk\n::::::\nnode.N.*\n",
			line:   4,
			text:   "node.N.*",
			reason: "value before any label",
		},
		{
			name:   "unterminated label",
			src:    ":::tags\ndisk\n:::\n",
			line:   3,
			text:   ":::",
			reason: "unterminated label",
		},
		{
			name:   "short heading prefix",
			src:    "::tags\n",
			line:   1,
			text:   "::tags",
			reason: "malformed label",
		},
		{
			name:   "trailing colon",
			src:    ":::tags:\n",
			line:   1,
			text:   ":::tags:",
			reason: "malformed label",
		},
		{
			name:   "duplicate label",
			src:    ":::tags\na\n:::keys\nx.*\n:::tags\nb\n",
			line:   5,
			text:   ":::tags",
			reason: "duplicate label",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blocks, err := ParseBlocks(strings.NewReader(tc.src), "bad.hexa")
			require.Error(t, err)
			assert.Nil(t, blocks, "no partial result on error")

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "bad.hexa", se.File)
			assert.Equal(t, tc.line, se.Line)
			assert.Equal(t, tc.text, se.Text)
			assert.Contains(t, se.Reason, tc.reason)
			assert.Contains(t, err.Error(), "bad.hexa:")
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{File: "t.hexa", Line: 7, Text: "x..y", Reason: "empty segment"}
	assert.Equal(t, `t.hexa:7: empty segment: "x..y"`, err.Error())

	err = &SyntaxError{Line: 2, Reason: "missing \"super\""}
	assert.Equal(t, `line 2: missing "super"`, err.Error())
	assert.True(t, IsSyntaxError(err))
}
