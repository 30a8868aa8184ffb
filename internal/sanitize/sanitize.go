// Package sanitize cleans user-supplied dataset labels before they are stored
// in the catalog. Labels set through the MCP server are later returned to
// other agents by tipgen_list and tipgen_describe, so markup and control
// characters that could be read as instructions are removed.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLabelLength is the maximum label length in runes.
const MaxLabelLength = 120

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reBackticks matches runs of two or more backticks.
	reBackticks = regexp.MustCompile("``+")

	// reMarkdownHeading matches a leading markdown heading marker.
	reMarkdownHeading = regexp.MustCompile(`^#{1,6}\s+`)
)

// Label sanitizes a dataset label for safe storage and display.
//
// The pipeline runs in this order:
//  1. Replace control characters, including newlines and tabs, with spaces
//  2. Strip XML/HTML tags
//  3. Collapse backtick runs to a single backtick
//  4. Collapse whitespace runs to one space and trim
//  5. Drop a leading markdown heading marker
//  6. Truncate to MaxLabelLength runes
func Label(input string) string {
	if input == "" {
		return ""
	}

	s := replaceControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reBackticks.ReplaceAllString(s, "`")
	s = strings.Join(strings.Fields(s), " ")
	s = reMarkdownHeading.ReplaceAllString(s, "")

	if r := []rune(s); len(r) > MaxLabelLength {
		s = strings.TrimSpace(string(r[:MaxLabelLength]))
	}
	return s
}

// replaceControlChars maps every Unicode control character to a space so
// that words on either side stay separated.
func replaceControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
