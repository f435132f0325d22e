// ABOUTME: Field sanitization for incoming settings values
// ABOUTME: Prefix-filters keys and normalizes text, colors, and flags

package settings

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Partial is a sanitized set of settings fields keyed by option name.
// String-valued fields hold strings; flag fields hold ints (0 or 1).
type Partial map[string]any

// fieldKind selects the sanitization rule for a key.
type fieldKind int

const (
	kindText fieldKind = iota
	kindTextarea
	kindColor
	kindBool
)

// textareaKeys are free-text fields that keep embedded newlines.
var textareaKeys = map[string]bool{
	"vapi_system_prompt":  true,
	"vapi_training_notes": true,
}

// boolKeys are stored as 0/1 flags.
var boolKeys = map[string]bool{
	"vapi_button_fixed": true,
}

// kindFor classifies a recognized key. Color handling is keyed off the
// "_color" suffix convention so per-state color fields all convert.
func kindFor(key string) fieldKind {
	switch {
	case boolKeys[key]:
		return kindBool
	case textareaKeys[key]:
		return kindTextarea
	case strings.Contains(key, "_color"):
		return kindColor
	default:
		return kindText
	}
}

// Sanitize normalizes a partial settings update. Keys outside the vapi_
// namespace are dropped. Every retained value comes back as a string, except
// flag fields which come back as 0/1 ints. Sanitize is idempotent.
func Sanitize(input map[string]any) Partial {
	out := make(Partial, len(input))
	for key, val := range input {
		if !strings.HasPrefix(key, KeyPrefix) {
			continue
		}
		switch kindFor(key) {
		case kindBool:
			out[key] = boolToFlag(val)
		case kindTextarea:
			out[key] = SanitizeTextarea(asString(val))
		case kindColor:
			out[key] = SanitizeColor(asString(val))
		default:
			out[key] = SanitizeText(asString(val))
		}
	}
	return out
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags removes markup and neutralizes any dangling open bracket so no
// tag can survive or be reassembled downstream.
func stripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "<", "&lt;")
}

// SanitizeText normalizes a single-line text field: invalid UTF-8 and markup
// removed, all whitespace (including newlines) collapsed to single spaces,
// ends trimmed.
func SanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = stripTags(s)
	s = strings.Map(dropControl, s)
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeTextarea normalizes a multi-line field: markup and control
// characters removed but newlines and tabs preserved.
func SanitizeTextarea(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = stripTags(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		return dropControl(r)
	}, s)
	return strings.TrimSpace(s)
}

func dropControl(r rune) rune {
	if r < 0x20 || r == 0x7f {
		return -1
	}
	return r
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SanitizeColor converts a 6-digit hex color to the canonical rgb(r, g, b)
// form. Anything else, including malformed hex lengths, passes through the
// plain text sanitizer unchanged rather than being dropped.
func SanitizeColor(s string) string {
	s = strings.TrimSpace(s)
	if !hexColorPattern.MatchString(s) {
		return SanitizeText(s)
	}
	r, _ := strconv.ParseUint(s[1:3], 16, 8)
	g, _ := strconv.ParseUint(s[3:5], 16, 8)
	b, _ := strconv.ParseUint(s[5:7], 16, 8)
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}

// boolToFlag coerces any truthy value to 1 and anything else to 0.
func boolToFlag(v any) int {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
	case int:
		if t != 0 {
			return 1
		}
	case float64:
		if t != 0 {
			return 1
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "0", "false", "off", "no":
			return 0
		default:
			return 1
		}
	}
	return 0
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		// JSON numbers; render integers without an exponent or decimal
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}
