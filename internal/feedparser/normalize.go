package feedparser

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// normalize cleans a title or description field for storage: HTML entities
// are decoded, tags are stripped, entities are decoded a second time (feed
// authors routinely double-encode), whitespace runs collapse to a single
// space, and the result is trimmed. Content fields are never normalized —
// they are stored raw per the parser's extraction rules.
func normalize(s string) string {
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// orEmpty turns a whitespace-only string into the empty string, the
// surface-level representation of the empty-string-becomes-null storage
// rule — domain fields are plain strings, and the store layer maps an
// empty string to SQL NULL on write.
func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
