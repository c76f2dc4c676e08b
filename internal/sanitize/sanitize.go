// Package sanitize normalizes untrusted text before it reaches the model or storage.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxContentLength is the maximum number of characters kept by Content.
const MaxContentLength = 16384

var (
	controlChars   = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
	lineEndings    = regexp.MustCompile("\r\n|\r")
	blankLineRuns  = regexp.MustCompile("\n{3,}")
	horizontalRuns = regexp.MustCompile("[ \t]+")
)

// Content strips control characters, normalizes whitespace and truncates
// the result to MaxContentLength characters. It never fails.
func Content(raw string) string {
	s := strings.ToValidUTF8(raw, "")
	s = controlChars.ReplaceAllString(s, "")
	s = lineEndings.ReplaceAllString(s, "\n")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	s = horizontalRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) <= MaxContentLength {
		return s
	}
	// Truncation can expose trailing whitespace; trim again so the output
	// is a fixed point of Content.
	return strings.TrimRightFunc(string(runes[:MaxContentLength]), unicode.IsSpace)
}

// Value sanitizes v when it is a string and returns "" otherwise.
func Value(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Content(s)
}
