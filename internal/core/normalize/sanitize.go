package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitize drops bytes that never belong in a code or label
// - ASCII controls including tab and newline
// - DEL (0x7F)
// - C1 controls U+0080..U+009F
// - invalid UTF-8 bytes
// The common clean case returns s unchanged without allocating
func Sanitize(s string) string {
	i := 0
	for i < len(s) {
		size, ok := keep(s[i:])
		if !ok {
			break
		}
		i += size
	}
	if i == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for i < len(s) {
		size, ok := keep(s[i:])
		if ok {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// keep reports the width of the leading rune of s and whether it survives
func keep(s string) (int, bool) {
	c := s[0]
	if c < 0x80 {
		return 1, c >= 0x20 && c != 0x7F
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size == 1 {
		return 1, false
	}
	return size, r > 0x9F
}
