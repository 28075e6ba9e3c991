// Package matcher finds location codes inside the sub-labels of one DNS label
package matcher

import (
	"sort"
	"strings"

	"github.com/alexmarder/hloc/internal/core/blacklist"
	"github.com/alexmarder/hloc/internal/core/codeindex"
)

// Match is one candidate location found in a label
type Match struct {
	LocationID int64
	Code       string
	Type       codeindex.CodeType
	LabelID    int64
}

// Result holds the matches of one label and their count per code type
type Result struct {
	Matches []Match
	Counts  map[codeindex.CodeType]int
}

// Total is the number of matches
func (r Result) Total() int { return len(r.Matches) }

// Matcher is stateless between calls and safe for concurrent use
type Matcher struct {
	idx *codeindex.Index
	bl  *blacklist.Set
}

// New wires a matcher over a built index; a nil set disables contextual exclusion
func New(idx *codeindex.Index, bl *blacklist.Set) *Matcher {
	if bl == nil {
		bl = blacklist.Empty()
	}
	return &Matcher{idx: idx, bl: bl}
}

// Match scans every start offset of every sub-label. At each offset the
// longest code that is neither blocked nor excluded wins; a blacklisted word
// blocks every shorter code it contains for the rest of the sub-label.
// A location id is emitted at most once per label
func (m *Matcher) Match(labelID int64, subLabels []string) Result {
	res := Result{Counts: map[codeindex.CodeType]int{}}
	seen := map[int64]struct{}{}

	for _, sub := range subLabels {
		var blocked []string
		for suffix := sub; suffix != ""; suffix = suffix[1:] {
			candidates := m.idx.PrefixesOf(suffix)
			sort.Slice(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

			for _, cand := range candidates {
				if containedIn(cand, blocked) {
					continue
				}
				if m.bl.Excluded(cand, sub) {
					continue
				}
				values := m.idx.Lookup(cand)
				if hasSentinel(values) {
					blocked = append(blocked, cand)
					continue
				}
				for _, v := range values {
					if _, ok := seen[v.LocationID]; ok {
						continue
					}
					seen[v.LocationID] = struct{}{}
					res.Matches = append(res.Matches, Match{LocationID: v.LocationID, Code: cand, Type: v.Type, LabelID: labelID})
					res.Counts[v.Type]++
				}
				// the longest usable code owns this offset
				break
			}
		}
	}
	return res
}

func containedIn(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

func hasSentinel(values []codeindex.Value) bool {
	for _, v := range values {
		if v.IsSentinel() {
			return true
		}
	}
	return false
}
