// Package normalize folds location codes and DNS labels into the form the code index stores
// Code pipeline
// 1 drop control runes and invalid UTF-8
// 2 Unicode NFKC normalization
// 3 Case folding
// 4 Remove zero-width format runes
// 5 Width fold fullwidth to ASCII
// 6 Trim surrounding whitespace
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transformer chains are stateful so each call takes its own
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Code returns the index form of a catalog code or name
func Code(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)
	if isLowerASCII(s) {
		return strings.TrimSpace(s)
	}

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// fall back to a plain lowercase; the chain only fails on malformed input
		ns = strings.ToLower(s)
	}
	return strings.TrimSpace(ns)
}

// Label lowercases a DNS label; labels are ASCII so no Unicode folding is applied
func Label(s string) string {
	return strings.ToLower(Sanitize(s))
}

// IsAlnum reports whether s is non-empty and made only of ASCII letters and digits
func IsAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x80 || 'A' <= c && c <= 'Z' {
			return false
		}
	}
	return true
}
