package codeindex

import (
	"strings"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
)

// CodeType identifies where a code came from; values are stored as smallint
type CodeType int16

const (
	IATA CodeType = iota
	ICAO
	FAA
	CLLI
	LOCODE
	Geonames
)

// blacklistType marks the sentinel value of a blacklisted word
const blacklistType CodeType = -1

var codeTypeNames = [...]string{"iata", "icao", "faa", "clli", "locode", "geonames"}

// CodeTypes lists every real code type in value order
func CodeTypes() []CodeType { return []CodeType{IATA, ICAO, FAA, CLLI, LOCODE, Geonames} }

func (t CodeType) String() string {
	if t >= 0 && int(t) < len(codeTypeNames) {
		return codeTypeNames[t]
	}
	if t == blacklistType {
		return "blacklisted"
	}
	return "unknown"
}

// Valid reports whether t is one of the real code types
func (t CodeType) Valid() bool { return t >= 0 && int(t) < len(codeTypeNames) }

// MarshalText renders the lowercase name
func (t CodeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, perr.InvalidArgf("invalid code type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses the lowercase name
func (t *CodeType) UnmarshalText(b []byte) error {
	v, err := ParseCodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseCodeType inverts String for the real code types
func ParseCodeType(s string) (CodeType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range codeTypeNames {
		if n == s {
			return CodeType(i), nil
		}
	}
	return 0, perr.WithField(perr.InvalidArgf("unknown code type %q", s), "code_type")
}
