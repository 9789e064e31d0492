package runner

import (
	"regexp"
	"slices"
	"strings"
)

var (
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	dialectPragma = regexp.MustCompile(`(?i)\bSET\s+SQL\s+DIALECT\s+\d+\s*;`)
)

const maxHeaderWords = 4

// routineHeaders start statements whose DECLARE section ends each
// declaration with a semicolon before the first BEGIN.
var routineHeaders = [][]string{
	{"CREATE", "PROCEDURE"},
	{"CREATE", "OR", "ALTER", "PROCEDURE"},
	{"ALTER", "PROCEDURE"},
	{"RECREATE", "PROCEDURE"},
	{"CREATE", "TRIGGER"},
	{"CREATE", "OR", "ALTER", "TRIGGER"},
	{"ALTER", "TRIGGER"},
	{"RECREATE", "TRIGGER"},
	{"EXECUTE", "BLOCK"},
}

// SplitStatements splits a script into executable statements.
//
// Block comments and SET SQL DIALECT pragmas are dropped. A semicolon ends a
// statement only outside BEGIN ... END (and CASE ... END) blocks, so procedure
// bodies stay whole. Emitted statements are trimmed and end with ";", except
// an unterminated remainder, which is emitted as is.
func SplitStatements(script string) []string {
	text := blockComment.ReplaceAllString(script, "")
	text = dialectPragma.ReplaceAllString(text, "")

	var (
		statements []string
		buf        strings.Builder
		depth      int
		sawBegin   bool
		lead       []string // leading keywords, comments and literals excluded
		declared   bool
	)

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'' || c == '"':
			j := skipQuoted(text, i)
			buf.WriteString(text[i:j])
			i = j

		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				j = len(text)
			} else {
				j += i
			}
			buf.WriteString(text[i:j])
			i = j

		case c == ';':
			i++
			if depth > 0 || (!sawBegin && declared && isRoutineHeader(lead)) {
				buf.WriteByte(';')
				continue
			}
			if stmt := strings.TrimSpace(buf.String()); stmt != "" {
				statements = append(statements, stmt+";")
			}
			buf.Reset()
			sawBegin = false
			lead = lead[:0]
			declared = false

		case isWordByte(c):
			j := i
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			word := text[i:j]
			upper := strings.ToUpper(word)
			if len(lead) < maxHeaderWords {
				lead = append(lead, upper)
			}
			switch upper {
			case "DECLARE":
				declared = true
			case "BEGIN":
				depth++
				sawBegin = true
			case "CASE":
				depth++
			case "END":
				if depth > 0 {
					depth--
				}
			}
			buf.WriteString(word)
			i = j

		default:
			buf.WriteByte(c)
			i++
		}
	}

	if tail := strings.TrimSpace(buf.String()); tail != "" {
		statements = append(statements, tail)
	}

	return statements
}

// skipQuoted returns the index just past the quoted run starting at start.
// Doubled quotes are handled as two adjacent runs.
func skipQuoted(text string, start int) int {
	quote := text[start]
	end := strings.IndexByte(text[start+1:], quote)
	if end < 0 {
		return len(text)
	}
	return start + 1 + end + 1
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

// isRoutineHeader reports whether the leading words of a statement open a
// procedure, trigger or EXECUTE BLOCK.
func isRoutineHeader(lead []string) bool {
	for _, header := range routineHeaders {
		if len(lead) >= len(header) && slices.Equal(lead[:len(header)], header) {
			return true
		}
	}
	return false
}
