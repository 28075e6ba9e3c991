// Package blacklist loads the three exclusion lists used when matching codes
package blacklist

import (
	"bufio"
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"strings"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
)

//go:embed defaults/*
var defaults embed.FS

const (
	defaultCodes   = "defaults/codes.txt"
	defaultWords   = "defaults/words.txt"
	defaultContext = "defaults/context.json"
)

// Paths names the list files; an empty path uses the embedded default unless NoDefaults
type Paths struct {
	Code       string
	Word       string
	Context    string
	NoDefaults bool
}

// Set is read-only after Load
type Set struct {
	Codes   map[string]struct{}
	Words   map[string]struct{}
	Context map[string][]string
}

// Empty returns a set that excludes nothing
func Empty() *Set {
	return &Set{Codes: map[string]struct{}{}, Words: map[string]struct{}{}, Context: map[string][]string{}}
}

// Excluded reports whether code has a context word contained in sublabel
func (s *Set) Excluded(code, sublabel string) bool {
	if s == nil {
		return false
	}
	for _, w := range s.Context[code] {
		if w != "" && strings.Contains(sublabel, w) {
			return true
		}
	}
	return false
}

// Load reads the three lists
func Load(p Paths) (*Set, error) {
	s := Empty()
	var err error

	if s.Codes, err = loadWith(p.Code, defaultCodes, p.NoDefaults, ReadList); err != nil {
		return nil, perr.WithField(err, "code_blacklist")
	}
	if s.Words, err = loadWith(p.Word, defaultWords, p.NoDefaults, ReadList); err != nil {
		return nil, perr.WithField(err, "word_blacklist")
	}
	if s.Context, err = loadWith(p.Context, defaultContext, p.NoDefaults, ReadContext); err != nil {
		return nil, perr.WithField(err, "context_blacklist")
	}
	return s, nil
}

func loadWith[T any](path, fallback string, noDefaults bool, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	var f fs.File
	var err error
	switch {
	case path != "":
		f, err = os.Open(path)
	case noDefaults:
		return read(strings.NewReader(""))
	default:
		path = fallback
		f, err = defaults.Open(fallback)
	}
	if err != nil {
		return zero, perr.Wrapf(err, perr.ErrorCodeConfig, "open %s", path)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, perr.WithOp(err, path)
	}
	return v, nil
}

// ReadList reads one entry per line; entries are trimmed and lowercased,
// blank lines and lines starting with # are skipped
func ReadList(r io.Reader) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		out[strings.ToLower(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "read list")
	}
	return out, nil
}

// ReadContext drops comment lines, joins the rest and decodes a JSON object of code to words
// an empty input is an empty mapping; malformed JSON is a config error
func ReadContext(r io.Reader) (map[string][]string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		b.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "read context list")
	}

	out := map[string][]string{}
	if b.Len() == 0 {
		return out, nil
	}
	var raw map[string][]string
	if err := json.Unmarshal([]byte(b.String()), &raw); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "decode context list")
	}
	for code, words := range raw {
		ws := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				ws = append(ws, w)
			}
		}
		out[strings.ToLower(strings.TrimSpace(code))] = ws
	}
	return out, nil
}
