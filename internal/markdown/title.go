package markdown

import (
	"regexp"
	"strings"
)

var closingHashes = regexp.MustCompile(`\s#+\s*$`)

// FirstTitle returns the first heading of a Markdown document, or "".
// Both ATX ("# Title") and Setext ("Title\n=====") forms are recognized.
func FirstTitle(content string) string {
	title, _ := scanFirstTitle(content)
	return title
}

// StripLeadingTitle removes the first heading from content when it equals
// title (case-insensitively, ignoring surrounding whitespace). Published
// pages already show the record title, keeping the duplicate heading in
// the rendered body would print it twice.
func StripLeadingTitle(content, title string) string {
	found, rest := scanFirstTitle(content)
	if found == "" {
		return content
	}
	if !strings.EqualFold(strings.TrimSpace(found), strings.TrimSpace(title)) {
		return content
	}
	return rest
}

// scanFirstTitle finds the first heading and returns it together with the
// document minus that heading.
func scanFirstTitle(content string) (string, string) {
	lines := strings.Split(content, "\n")

	for i, raw := range lines {
		// ATX heading
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "#") {
			txt := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			txt = strings.TrimSpace(closingHashes.ReplaceAllString(txt, ""))
			if txt != "" {
				rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
				return txt, strings.Join(rest, "\n")
			}
			continue
		}

		// Setext heading: next line is all '=' or all '-'
		if i+1 < len(lines) && trimmed != "" {
			underline := strings.TrimSpace(lines[i+1])
			if isAll(underline, '=') || isAll(underline, '-') {
				rest := append(append([]string{}, lines[:i]...), lines[i+2:]...)
				return trimmed, strings.Join(rest, "\n")
			}
		}
	}

	return "", content
}

func isAll(s string, ch byte) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != ch {
			return false
		}
	}
	return true
}
