// escape.go wraps goldmark's escaping utilities with the string forms the
// renderer works with.
package md

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/util"
)

// EscapeHTML escapes &, <, > and " for use in text and attribute values.
func EscapeHTML(s string) string {
	if !strings.ContainsAny(s, `&<>"`) {
		return s
	}
	return string(util.EscapeHTML([]byte(s)))
}

// entityRef matches a character reference at the start of a string.
var entityRef = regexp.MustCompile(`^&(?:#[xX][0-9a-fA-F]{1,6}|#[0-9]{1,7}|[A-Za-z][A-Za-z0-9]{1,31});`)

// UnescapeString resolves backslash escapes and character references in a
// single pass, so an escaped ampersand never starts a reference.
func UnescapeString(s string) string {
	if !strings.ContainsAny(s, `\&`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) && util.IsPunct(s[i+1]) {
			sb.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '&' {
			if ref := entityRef.FindString(s[i:]); ref != "" {
				sb.WriteString(DecodeEntity(ref))
				i += len(ref)
				continue
			}
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// DecodeEntity returns the text a character reference such as "&amp;" or
// "&#x22;" stands for. Unknown names are returned unchanged.
func DecodeEntity(ref string) string {
	if strings.HasPrefix(ref, "&#") {
		return string(util.ResolveNumericReferences([]byte(ref)))
	}
	name := strings.TrimSuffix(strings.TrimPrefix(ref, "&"), ";")
	if entity, ok := util.LookUpHTML5EntityByName(name); ok {
		return string(entity.Characters)
	}
	return ref
}

// NormalizeEOL converts CRLF and CR line endings to LF.
func NormalizeEOL(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CollapseWhitespace replaces every run of whitespace with a single space.
// When trim is set, leading and trailing whitespace is dropped.
func CollapseWhitespace(s string, trim bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if util.IsSpace(c) {
			inSpace = true
			continue
		}
		if inSpace && (sb.Len() > 0 || !trim) {
			sb.WriteByte(' ')
		}
		inSpace = false
		sb.WriteByte(c)
	}
	if inSpace && !trim {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// TrimTailBlankLines removes trailing lines that contain only whitespace.
// The newline ending the last non-blank line is kept.
func TrimTailBlankLines(s string) string {
	end := len(s)
	for end > 0 {
		lineStart := strings.LastIndexByte(s[:end], '\n')
		var line string
		if lineStart < 0 {
			line = s[:end]
		} else {
			line = s[lineStart+1 : end]
		}
		if strings.TrimSpace(line) != "" {
			break
		}
		if lineStart < 0 {
			return ""
		}
		end = lineStart
	}
	if end == 0 {
		return ""
	}
	if end < len(s) && s[end] == '\n' {
		end++
	}
	return s[:end]
}

// EncodeURL percent-encodes a destination without resolving references.
func EncodeURL(s string) string {
	return string(util.URLEscape([]byte(s), false))
}
