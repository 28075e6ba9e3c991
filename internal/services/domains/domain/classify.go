package domain

import (
	"encoding/hex"
	"net/netip"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Classify decides how a reverse name resolved for ip enters the search population
// Checks run in order: characters, address encoded in the name, unknown TLD
func Classify(ip netip.Addr, name string) Classification {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	if name == "" || !validChars(name) {
		return InvalidCharacters
	}
	if ipEncoded(ip, name) {
		return IPEncoded
	}
	if !knownTLD(name) {
		return BadTLD
	}
	return Valid
}

func validChars(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '.' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// knownTLD reports whether the rightmost label is an ICANN or private suffix
func knownTLD(name string) bool {
	suffix, icann := publicsuffix.PublicSuffix(name)
	return icann || strings.Contains(suffix, ".")
}

// ipEncoded finds the four octets of an IPv4 address in order or reversed,
// separated by '.', '-' or '_' with up to two leading zeros each, or the
// address as eight hex digits
func ipEncoded(ip netip.Addr, name string) bool {
	if !ip.Is4() {
		return false
	}
	b := ip.As4()
	if strings.Contains(name, hex.EncodeToString(b[:])) {
		return true
	}

	var fwd, rev [4]string
	for i, o := range b {
		fwd[i] = strconv.Itoa(int(o))
		rev[3-i] = fwd[i]
	}
	tokens := strings.FieldsFunc(name, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
	for i := 0; i+4 <= len(tokens); i++ {
		if octetRun(tokens[i:i+4], fwd) || octetRun(tokens[i:i+4], rev) {
			return true
		}
	}
	return false
}

func octetRun(t []string, o [4]string) bool {
	return hasOctet(t[0], o[0], strings.HasSuffix) &&
		isOctet(t[1], o[1]) &&
		isOctet(t[2], o[2]) &&
		hasOctet(t[3], o[3], strings.HasPrefix)
}

func isOctet(tok, o string) bool {
	return tok == o || tok == "0"+o || tok == "00"+o
}

func hasOctet(tok, o string, at func(s, affix string) bool) bool {
	return at(tok, o) || at(tok, "0"+o) || at(tok, "00"+o)
}
