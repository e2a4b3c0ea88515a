package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?i)```(?:json)?")

// ParseModelOutput turns a raw model reply into a decoded JSON value
// (map[string]any, []any, ...). See DecodeModelOutput.
func ParseModelOutput(raw string) (any, error) {
	var v any
	if err := DecodeModelOutput(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeModelOutput strips code fences from raw, parses it strictly and, if
// that fails, retries once after escaping stray backslashes. The repaired text
// is then decoded into out. Failures are reported as *MalformedContentError.
func DecodeModelOutput(raw string, out any) error {
	text := stripFences(raw)

	firstErr := json.Unmarshal([]byte(text), out)
	if firstErr == nil {
		return nil
	}

	repaired := escapeStrayBackslashes(text)
	if repaired == text {
		return &MalformedContentError{Err: firstErr, Text: text}
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return &MalformedContentError{Err: firstErr, Text: text}
	}
	return nil
}

func stripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

// escapeStrayBackslashes doubles every backslash that does not start a valid
// JSON escape sequence. Valid escapes are copied through untouched.
func escapeStrayBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if n := validEscapeLen(s[i:]); n > 0 {
			b.WriteString(s[i : i+n])
			i += n - 1
			continue
		}
		b.WriteString(`\\`)
	}
	return b.String()
}

// validEscapeLen returns the length of the escape sequence at the start of s,
// or 0 if s does not begin with one.
func validEscapeLen(s string) int {
	if len(s) < 2 {
		return 0
	}
	switch s[1] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return 2
	case 'u':
		if len(s) < 6 {
			return 0
		}
		for _, h := range s[2:6] {
			if !isHex(h) {
				return 0
			}
		}
		return 6
	}
	return 0
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
