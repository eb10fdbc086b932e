package cellscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Kinds(t *testing.T) {
	cases := []struct {
		src    string
		kind   Kind
		name   string
		expr   string
		params []string
	}{
		{"a = 1", KindAssign, "a", "1", nil},
		{"a=b+1", KindAssign, "a", "b+1", nil},
		{"a == 1", KindExpr, "", "a == 1", nil},
		{"a <= 1", KindExpr, "", "a <= 1", nil},
		{"def f(x, y) = x + y", KindDef, "f", "x + y", []string{"x", "y"}},
		{"def main() = 42", KindDef, "main", "42", nil},
		{"del a", KindDel, "a", "", nil},
		{`raise "boom"`, KindRaise, "", `"boom"`, nil},
		{"raise", KindRaise, "", "", nil},
		{"raised = 1", KindAssign, "raised", "1", nil},
		{"upper(\"x\")", KindExpr, "", "upper(\"x\")", nil},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			stmts, err := Parse(tc.src)
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			st := stmts[0]
			assert.Equal(t, tc.kind, st.Kind)
			assert.Equal(t, tc.name, st.Name)
			assert.Equal(t, tc.expr, st.Expr)
			assert.Equal(t, tc.params, st.Params)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"def f(1x) = 1", "def f() =", "def f", "a =", "del 9"} {
		_, err := Parse(src)
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr, "source %q", src)
	}
}

func TestSplit_Continuations(t *testing.T) {
	code := "a = 1\n\nb = [\n  1,\n  2,\n]\nc = a +\n  b[0]\nobj = {\n  x = 1\n  y = 2\n}"
	stmts, err := Parse(code)
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	assert.Equal(t, 1, stmts[0].Line)
	assert.Equal(t, 3, stmts[1].Line)
	assert.Equal(t, "b = [\n  1,\n  2,\n]", stmts[1].Text)
	assert.Equal(t, "a + b[0]", stmts[2].Expr)
	assert.Equal(t, KindAssign, stmts[3].Kind)
	assert.Contains(t, stmts[3].Expr, "\n")
}

func TestBracketDelta_IgnoresStrings(t *testing.T) {
	assert.Equal(t, 2, bracketDelta(`x = f("(", [`))
	assert.Equal(t, 0, bracketDelta(`"\")"`))
	assert.Equal(t, -1, bracketDelta(`]`))
}

func TestLastStatement(t *testing.T) {
	st, ok := LastStatement("a = 1\nb = [\n  a,\n]")
	require.True(t, ok)
	assert.Equal(t, KindAssign, st.Kind)
	assert.Equal(t, "b", st.Name)

	_, ok = LastStatement("")
	assert.False(t, ok)
	_, ok = LastStatement("a = 1\ndef f(")
	assert.False(t, ok)
}
