// Package section pulls individual top-level values out of a JSON document
// by scanning characters, without parsing or holding the whole document.
//
// A section that is missing, has the wrong shape, or does not parse on its
// own is reported as absent; the caller treats it as empty and moves on.
package section

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mesh-intelligence/almanac/internal/logger"
)

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	jsonNull = []byte("null")
)

// Extract returns the elements of the array stored under the top-level key
// name. Keys are matched in the casing variants returned by Variants, in
// that priority order. The second result is false when the section is
// absent, not an array, or malformed.
func Extract(name string, src []byte) ([]json.RawMessage, bool) {
	raw, ok := extract(name, src, '[', ']')
	if !ok {
		return nil, false
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		logger.Warn("section does not parse, treating as absent", "section", name, "error", err)
		return nil, false
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, true
}

// ExtractObject returns the object stored under the top-level key name,
// using the same brace-balanced scan as Extract. Nested objects and arrays
// inside the value are kept intact.
func ExtractObject(name string, src []byte) (json.RawMessage, bool) {
	raw, ok := extract(name, src, '{', '}')
	if !ok {
		return nil, false
	}
	if !json.Valid(raw) {
		logger.Warn("object does not parse, treating as absent", "section", name)
		return nil, false
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, true
}

// Keys returns the keys of the root object in document order. It returns
// nil when the root is not an object.
func Keys(src []byte) []string {
	var keys []string
	walkKeys(src, func(key []byte, _ int) bool {
		keys = append(keys, string(key))
		return true
	})
	return keys
}

// Variants returns the spellings under which a section key is looked up:
// as given, lowercase, uppercase, and capitalized, without duplicates.
func Variants(name string) []string {
	var out []string
	for _, c := range []string{name, strings.ToLower(name), strings.ToUpper(name), capitalize(name)} {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// extract locates the value of key name and returns the balanced
// open...close substring starting there.
func extract(name string, src []byte, open, close byte) ([]byte, bool) {
	start, ok := findValue(name, src)
	if !ok {
		logger.Debug("section absent", "section", name)
		return nil, false
	}
	if bytes.HasPrefix(src[start:], jsonNull) {
		logger.Debug("section is null, treating as absent", "section", name)
		return nil, false
	}
	if start >= len(src) || src[start] != open {
		logger.Warn("section has unexpected shape, treating as absent",
			"section", name, "want", string(open))
		return nil, false
	}
	end, ok := balanced(src, start, open, close)
	if !ok {
		logger.Warn("section is unterminated, treating as absent", "section", name)
		return nil, false
	}
	return src[start:end], true
}

// findValue returns the offset of the first non-whitespace byte of the value
// of the best-matching key variant.
func findValue(name string, src []byte) (int, bool) {
	variants := Variants(name)
	best := len(variants)
	at := -1
	walkKeys(src, func(key []byte, valueAt int) bool {
		for i := 0; i < best; i++ {
			if string(key) == variants[i] {
				best, at = i, valueAt
				break
			}
		}
		// The exact spelling cannot be beaten.
		return best != 0
	})
	return at, at >= 0
}

// walkKeys calls fn for every key of the root object with the offset of its
// value. Keys of nested objects are not reported. Walking stops when fn
// returns false or the root object closes.
func walkKeys(src []byte, fn func(key []byte, valueAt int) bool) {
	i := 0
	if bytes.HasPrefix(src, utf8BOM) {
		i = len(utf8BOM)
	}
	i = skipSpace(src, i)
	if i >= len(src) || src[i] != '{' {
		return
	}
	depth := 0
	for i < len(src) {
		switch src[i] {
		case '"':
			end, ok := skipString(src, i)
			if !ok {
				return
			}
			if depth == 1 {
				j := skipSpace(src, end)
				if j < len(src) && src[j] == ':' {
					if !fn(src[i+1:end-1], skipSpace(src, j+1)) {
						return
					}
				}
			}
			i = end
			continue
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return
			}
		}
		i++
	}
}

// balanced returns the offset just past the close byte matching the open
// byte at src[start]. Bytes inside string literals are skipped verbatim, so
// brackets and escaped quotes in strings are never counted.
func balanced(src []byte, start int, open, close byte) (int, bool) {
	depth := 0
	for i := start; i < len(src); {
		switch src[i] {
		case '"':
			end, ok := skipString(src, i)
			if !ok {
				return 0, false
			}
			i = end
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
		i++
	}
	return 0, false
}

// skipString returns the offset just past the closing quote of the string
// literal starting at src[i].
func skipString(src []byte, i int) (int, bool) {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1, true
		}
	}
	return 0, false
}

func skipSpace(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}
