package cellscript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/cellgrid/internal/strutil"
)

// Kind classifies a statement.
type Kind int

const (
	KindExpr Kind = iota
	KindAssign
	KindDef
	KindDel
	KindRaise
)

func (k Kind) String() string {
	switch k {
	case KindAssign:
		return "assign"
	case KindDef:
		return "def"
	case KindDel:
		return "del"
	case KindRaise:
		return "raise"
	default:
		return "expr"
	}
}

// Statement is one logical line of cell code.
type Statement struct {
	Kind   Kind
	Line   int      // 1-based line the statement starts on
	Text   string   // source text, continuation lines included
	Name   string   // target of assign, def and del
	Params []string // def only
	Expr   string   // expression source; empty for del and a bare raise
}

var (
	identRe  = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	defRe    = regexp.MustCompile(`(?s)^def\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*=(.*)$`)
	delRe    = regexp.MustCompile(`^del\s+(\S+)\s*$`)
	raiseRe  = regexp.MustCompile(`(?s)^raise(\s+.*)?$`)
	assignRe = regexp.MustCompile(`(?s)^([A-Za-z_]\w*)\s*=(.*)$`)
)

// chunk is the raw material of a statement before classification.
type chunk struct {
	line int
	text string // lines joined with \n
	expr string // lines joined the way the HCL parser needs them
}

// split groups lines into logical statements. A statement starts on an
// unindented line; indented lines and lines inside open brackets continue it.
func split(code string) []chunk {
	var (
		out   []chunk
		cur   *chunk
		depth int
	)
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}
	for i, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) == "" {
			if cur != nil && depth > 0 {
				cur.text += "\n" + line
				cur.expr += "\n"
			}
			continue
		}
		switch {
		case cur != nil && depth > 0:
			// HCL ignores newlines inside brackets and needs them inside
			// object constructors.
			cur.text += "\n" + line
			cur.expr += "\n" + line
		case cur != nil && strutil.StartsWithWhitespace(line):
			cur.text += "\n" + line
			cur.expr += " " + strings.TrimSpace(line)
		default:
			flush()
			cur = &chunk{line: i + 1, text: line, expr: line}
		}
		depth += bracketDelta(line)
		if depth < 0 {
			depth = 0
		}
	}
	flush()
	return out
}

// bracketDelta counts opening minus closing brackets outside string literals.
func bracketDelta(line string) int {
	delta := 0
	inString := false
	escaped := false
	for _, r := range line {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return delta
}

// parse classifies one chunk.
func parse(c chunk) (Statement, error) {
	src := strings.TrimSpace(c.expr)
	st := Statement{Line: c.line, Text: c.text}

	if m := defRe.FindStringSubmatch(src); m != nil {
		st.Kind = KindDef
		st.Name = m[1]
		st.Expr = strings.TrimSpace(m[3])
		for _, p := range strings.Split(m[2], ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !identRe.MatchString(p) {
				return st, &SyntaxError{Line: c.line, Msg: fmt.Sprintf("invalid parameter name %q", p)}
			}
			st.Params = append(st.Params, p)
		}
		if st.Expr == "" {
			return st, &SyntaxError{Line: c.line, Msg: fmt.Sprintf("function %q has no body", st.Name)}
		}
		return st, nil
	}
	if strings.HasPrefix(src, "def ") {
		return st, &SyntaxError{Line: c.line, Msg: "expected def name(params) = expression"}
	}

	if m := delRe.FindStringSubmatch(src); m != nil {
		if !identRe.MatchString(m[1]) {
			return st, &SyntaxError{Line: c.line, Msg: fmt.Sprintf("cannot delete %q", m[1])}
		}
		st.Kind = KindDel
		st.Name = m[1]
		return st, nil
	}

	if m := raiseRe.FindStringSubmatch(src); m != nil {
		st.Kind = KindRaise
		st.Expr = strings.TrimSpace(m[1])
		return st, nil
	}

	if m := assignRe.FindStringSubmatch(src); m != nil && !strings.HasPrefix(m[2], "=") {
		st.Kind = KindAssign
		st.Name = m[1]
		st.Expr = strings.TrimSpace(m[2])
		if st.Expr == "" {
			return st, &SyntaxError{Line: c.line, Msg: fmt.Sprintf("missing value for %q", st.Name)}
		}
		return st, nil
	}

	st.Kind = KindExpr
	st.Expr = src
	return st, nil
}

// Parse splits code into statements and classifies each of them.
func Parse(code string) ([]Statement, error) {
	chunks := split(code)
	out := make([]Statement, 0, len(chunks))
	for _, c := range chunks {
		st, err := parse(c)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// LastLogicalLine returns the source text of the final statement of code,
// continuation lines included, without classifying it.
func LastLogicalLine(code string) string {
	chunks := split(code)
	if len(chunks) == 0 {
		return ""
	}
	return strings.TrimSpace(chunks[len(chunks)-1].text)
}

// LastStatement returns the decisive final statement of code. The boolean is
// false when code holds no statement or the last one does not parse.
func LastStatement(code string) (Statement, bool) {
	chunks := split(code)
	if len(chunks) == 0 {
		return Statement{}, false
	}
	st, err := parse(chunks[len(chunks)-1])
	if err != nil {
		return Statement{}, false
	}
	return st, true
}
