package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trailing spaces", "a = 1   \nb = 2\t", "a = 1\nb = 2"},
		{"trailing blank lines", "a = 1\n\n\n", "a = 1"},
		{"blank lines with spaces", "a = 1\n  \n \t\n", "a = 1"},
		{"keeps leading indentation", "x = [\n  1,\n]", "x = [\n  1,\n]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clean(tc.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{"", "\n", "  a  \n\n", "a\n  b \n\t\n", "x = 1 # c  \n\n"}
	for _, in := range inputs {
		once := Clean(in)
		require.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestRemoveComments(t *testing.T) {
	in := "# header\na = 1 # one\n  # indented comment\nb = 2"
	assert.Equal(t, "a = 1 \nb = 2", RemoveComments(in, "#"))
	assert.Equal(t, "", RemoveComments("", "#"))
	assert.Equal(t, "a // b", RemoveComments("a // b", ""))
	assert.Equal(t, "a ", RemoveComments("a // b", "//"))
}

func TestLastLines(t *testing.T) {
	code := "def f(x) = x\nresult = f(\n  2)\n\tz"
	assert.Equal(t, "\tz", LastLine(code))
	assert.Equal(t, "result = f(", LastUnindentLine(code))
	assert.Equal(t, 1, LastUnindentIndex(code))

	assert.Equal(t, "", LastLine(""))
	assert.Equal(t, "", LastUnindentLine(""))
	assert.Equal(t, -1, LastUnindentIndex(""))
	assert.Equal(t, -1, LastUnindentIndex("  a\n\tb"))
	assert.Equal(t, "b", LastLine("a\nb\n"))
}

func TestSmallHelpers(t *testing.T) {
	assert.True(t, StartsWithWhitespace(" a"))
	assert.False(t, StartsWithWhitespace("a "))
	assert.False(t, StartsWithWhitespace(""))

	assert.Equal(t, "llo", FromIndex("hello", 2))
	assert.Equal(t, "", FromIndex("hello", -1))
	assert.Equal(t, "", FromIndex("hello", 9))

	assert.Equal(t, "ab", RemoveNewLines("a\r\nb\n"))
	assert.Equal(t, "a=1b=2", Flatten("  a=1  \n\tb=2\n"))
	assert.Equal(t, "", Flatten(""))
}
