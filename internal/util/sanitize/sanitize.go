// Package sanitize cleans user-typed text and client-supplied filenames.
//
// It removes:
//   - Windows/Mac line endings (CRLF/CR → LF)
//   - Invisible Unicode characters (zero-width spaces, BOM, soft hyphen)
//   - Runs of spaces and tabs
package sanitize

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

var invisibleChars = []string{
	"\u200B", // Zero-width space
	"\u200C", // Zero-width non-joiner
	"\u200D", // Zero-width joiner
	"\uFEFF", // Zero-width no-break space (BOM)
	"\u00AD", // Soft hyphen
	"\u2060", // Word joiner
	"\u180E", // Mongolian vowel separator
}

// Question normalizes a chat question. The result is empty when the input
// holds nothing but whitespace and invisible characters.
func Question(q string) string {
	if q == "" {
		return q
	}
	q = normalizeLineEndings(q)
	q = removeInvisibleChars(q)
	q = spaceRun.ReplaceAllString(q, " ")
	q = newlineRun.ReplaceAllString(q, "\n\n")
	return strings.TrimSpace(q)
}

// Filename reduces a client-supplied name to a safe base name. Path
// components and control characters are dropped.
func Filename(name string) string {
	name = removeInvisibleChars(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

// Field removes invisible characters and surrounding whitespace.
func Field(field string) string {
	if field == "" {
		return field
	}
	return strings.TrimSpace(removeInvisibleChars(field))
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func removeInvisibleChars(s string) string {
	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}
