package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/find/domain"
	hintsdom "github.com/alexmarder/hloc/internal/services/hints/domain"
	locdom "github.com/alexmarder/hloc/internal/services/locations/domain"
)

type fakeCatalog struct {
	locs  []locdom.Location
	calls int
}

func (c *fakeCatalog) All(context.Context) ([]locdom.Location, error) {
	c.calls++
	return c.locs, nil
}

// fakeShard partitions an in-memory population the way the pg repo does
type fakeShard struct {
	mu      sync.Mutex
	domains []domdom.Domain
	visits  map[int64]int
	err     error
}

func newFakeShard(ds ...domdom.Domain) *fakeShard {
	slices.SortFunc(ds, func(a, b domdom.Domain) int { return int(a.ID - b.ID) })
	return &fakeShard{domains: ds, visits: map[int64]int{}}
}

func (f *fakeShard) ListShard(_ context.Context, in domdom.ShardInput) ([]domdom.Domain, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domdom.Domain
	for _, d := range f.domains {
		if d.ID%int64(in.Workers) != int64(in.Worker) || d.ID <= in.AfterID || !slices.Contains(in.Classes, d.Classification) {
			continue
		}
		out = append(out, d)
		f.visits[d.ID]++
		if len(out) == in.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeShard) CountPopulation(_ context.Context, classes []domdom.Classification, _ string) (int64, error) {
	var n int64
	for _, d := range f.domains {
		if slices.Contains(classes, d.Classification) {
			n++
		}
	}
	return n, nil
}

type fakeSearched struct {
	mu      sync.Mutex
	missing map[int64]bool
	touched map[int64]time.Time
	calls   int
	err     error
}

func newFakeSearched() *fakeSearched {
	return &fakeSearched{missing: map[int64]bool{}, touched: map[int64]time.Time{}}
}

func (f *fakeSearched) TouchSearched(_ context.Context, labelID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.missing[labelID] {
		return perr.ErrNotFound
	}
	f.touched[labelID] = at
	return nil
}

// hintStore keeps hints and associations in memory; writes apply immediately
type hintStore struct {
	mu        sync.Mutex
	nextID    int64
	hints     map[hintsdom.NaturalKey]int64
	assoc     map[hintsdom.Association]struct{}
	begins    int
	commits   int
	rollbacks int
	beginErr  error
	upserts   [][]hintsdom.NaturalKey
}

func newHintStore() *hintStore {
	return &hintStore{hints: map[hintsdom.NaturalKey]int64{}, assoc: map[hintsdom.Association]struct{}{}}
}

func (h *hintStore) Begin(context.Context) (hintsdom.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.beginErr != nil {
		return nil, h.beginErr
	}
	h.begins++
	return &hintSession{h: h}, nil
}

func (h *hintStore) labelsOf(hintID int64) []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []int64
	for a := range h.assoc {
		if a.HintID == hintID {
			out = append(out, a.LabelID)
		}
	}
	slices.Sort(out)
	return out
}

func (h *hintStore) assocCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.assoc)
}

type hintSession struct {
	h    *hintStore
	done bool
}

func (s *hintSession) UpsertHints(_ context.Context, keys []hintsdom.NaturalKey) (map[hintsdom.NaturalKey]int64, error) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.upserts = append(s.h.upserts, slices.Clone(keys))
	out := map[hintsdom.NaturalKey]int64{}
	for _, k := range keys {
		id, ok := s.h.hints[k]
		if !ok {
			s.h.nextID++
			id = s.h.nextID
			s.h.hints[k] = id
		}
		out[k] = id
	}
	return out, nil
}

func (s *hintSession) InsertAssociations(_ context.Context, as []hintsdom.Association) (int64, error) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	var n int64
	for _, a := range as {
		if _, ok := s.h.assoc[a]; !ok {
			s.h.assoc[a] = struct{}{}
			n++
		}
	}
	return n, nil
}

func (s *hintSession) DeleteAssociations(_ context.Context, labelID int64) (int64, error) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	var n int64
	for a := range s.h.assoc {
		if a.LabelID == labelID {
			delete(s.h.assoc, a)
			n++
		}
	}
	return n, nil
}

func (s *hintSession) Commit(context.Context) error {
	if s.done {
		return errors.New("session closed")
	}
	s.done = true
	s.h.mu.Lock()
	s.h.commits++
	s.h.mu.Unlock()
	return nil
}

func (s *hintSession) Rollback(context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	s.h.mu.Lock()
	s.h.rollbacks++
	s.h.mu.Unlock()
	return nil
}

type countingProgress struct {
	mu     sync.Mutex
	total  int64
	added  int
	closed bool
}

func (p *countingProgress) Start(total int64) { p.total = total }
func (p *countingProgress) Add(n int) {
	p.mu.Lock()
	p.added += n
	p.mu.Unlock()
}
func (p *countingProgress) Finish() { p.closed = true }

type memSink struct{ reports []domain.Report }

func (m *memSink) WriteSummary(_ context.Context, r domain.Report) error {
	m.reports = append(m.reports, r)
	return nil
}

// mkDomain builds a domain whose labels get ids base+position
func mkDomain(id int64, name string, base int64) domdom.Domain {
	d := domdom.Domain{ID: id, Name: name, Classification: domdom.Valid}
	for i, l := range domdom.SplitLabels(name) {
		d.Labels = append(d.Labels, domdom.Label{ID: base + int64(i), Name: l, Position: i})
	}
	return d
}
