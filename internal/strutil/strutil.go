// Package strutil holds the pure text helpers used to sanitize cell code and
// to locate its decisive final statement. Every function is defined for the
// empty string.
package strutil

import "strings"

// RemoveTrailingWhitespace strips trailing whitespace from every line.
func RemoveTrailingWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\v\f")
	}
	return strings.Join(lines, "\n")
}

// RemoveTrailingEmptyLines strips trailing newlines.
func RemoveTrailingEmptyLines(s string) string {
	return strings.TrimRight(s, "\n")
}

// Clean removes trailing whitespace per line and then trailing blank lines.
func Clean(s string) string {
	return RemoveTrailingEmptyLines(RemoveTrailingWhitespace(s))
}

// RemoveComments drops lines that are entirely comments and cuts every other
// line at the first occurrence of marker. The marker is matched literally,
// including inside string literals.
func RemoveComments(s, marker string) string {
	if marker == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), marker) {
			continue
		}
		if i := strings.Index(line, marker); i >= 0 {
			line = line[:i]
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// splitLines splits like Python's str.splitlines for \n and \r\n endings:
// a trailing newline does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// LastLine returns the final line of s.
func LastLine(s string) string {
	lines := splitLines(s)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// StartsWithWhitespace reports whether the first byte of s is whitespace.
func StartsWithWhitespace(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// LastUnindentLine returns the last line that does not start with a space or
// a tab, or "" when there is none.
func LastUnindentLine(s string) string {
	lines := splitLines(s)
	if i := lastUnindent(lines); i >= 0 {
		return lines[i]
	}
	return ""
}

// LastUnindentIndex returns the line index of LastUnindentLine, or -1.
func LastUnindentIndex(s string) int {
	return lastUnindent(splitLines(s))
}

func lastUnindent(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if isIndented(lines[i]) {
			continue
		}
		return i
	}
	return -1
}

// FromIndex returns s from byte offset index on. Out of range offsets give "".
func FromIndex(s string, index int) string {
	if index < 0 || index > len(s) {
		return ""
	}
	return s[index:]
}

// RemoveNewLines removes every \n and \r.
func RemoveNewLines(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// Flatten trims each line and joins them with no separator.
func Flatten(s string) string {
	lines := splitLines(s)
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimSpace(line))
	}
	return b.String()
}
