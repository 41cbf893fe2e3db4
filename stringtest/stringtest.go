// Package stringtest provides helpers for building expected strings and for
// inspecting rendered terminal output in tests.
package stringtest

import "strings"

// Input dedents a raw string literal. One leading and one trailing newline
// are removed, the common indentation of non-blank lines is stripped, and
// whitespace-only lines become empty.
//
// Example:
//
//	cfg := stringtest.Input(`
//		mode: colored
//		max_width: 40
//	`) // -> "mode: colored\nmax_width: 40"
func Input(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")

	lines := strings.Split(s, "\n")
	indent := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""

			continue
		}

		lines[i] = line[max(indent, 0):]
	}

	return strings.Join(lines, "\n")
}

// JoinLF joins multiple strings with LF line endings.
// Use this to construct expected test output with explicit line endings.
//
// Example:
//
//	want := stringtest.JoinLF(
//		"line1",
//		"line2",
//		"line3",
//	) // -> "line1\nline2\nline3"
func JoinLF(ss ...string) string {
	return strings.Join(ss, "\n")
}

// sgrEnd returns the index of the terminating 'm' of an SGR sequence that
// starts at s[i], or -1 when s[i:] does not start one.
func sgrEnd(s string, i int) int {
	if i+1 >= len(s) || s[i] != '\x1b' || s[i+1] != '[' {
		return -1
	}

	for j := i + 2; j < len(s); j++ {
		switch {
		case s[j] == 'm':
			return j
		case s[j] == ';' || (s[j] >= '0' && s[j] <= '9'):
			continue
		}

		return -1
	}

	return -1
}

// StripSGR removes every "ESC [ ... m" sequence from s, leaving the glyphs
// and line breaks of rendered terminal output.
func StripSGR(s string) string {
	var sb strings.Builder

	for i := 0; i < len(s); i++ {
		if j := sgrEnd(s, i); j >= 0 {
			i = j

			continue
		}

		sb.WriteByte(s[i])
	}

	return sb.String()
}

// CountSGR returns the number of "ESC [ ... m" sequences in s.
func CountSGR(s string) int {
	n := 0

	for i := 0; i < len(s); i++ {
		if j := sgrEnd(s, i); j >= 0 {
			n++
			i = j
		}
	}

	return n
}

// Rows splits rendered output into rows, dropping the empty string after a
// trailing newline.
func Rows(s string) []string {
	rows := strings.Split(s, "\n")
	if rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}

	return rows
}
