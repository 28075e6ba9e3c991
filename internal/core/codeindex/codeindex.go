// Package codeindex holds the read-only prefix index over location codes
//
// The index is a byte trie whose sparse edges are kept sorted and flattened
// into parallel slices after Build. Lookups walk at most len(s) nodes and do a
// binary search over each node's edges.
package codeindex

import "sort"

// BlacklistedID is the location id carried by the sentinel value
const BlacklistedID int64 = -1

// Entry is one code of one location
type Entry struct {
	Code       string
	LocationID int64
	Type       CodeType
}

// Value is what a key maps to
type Value struct {
	LocationID int64
	Type       CodeType
}

// Sentinel marks a word from the word blacklist
var Sentinel = Value{LocationID: BlacklistedID, Type: blacklistType}

// IsSentinel reports whether v marks a blacklisted word
func (v Value) IsSentinel() bool { return v == Sentinel }

// Index is immutable after Build and safe for concurrent readers
type Index struct {
	// edges of node n are edgeByte[edgeOff[n]:edgeOff[n+1]], sorted by byte
	edgeOff   []int32
	edgeByte  []byte
	edgeChild []int32
	// values of node n are vals[valOff[n]:valOff[n+1]]
	valOff []int32
	vals   []Value
	keys   int
}

type buildEdge struct {
	b     byte
	child int32
}

type buildNode struct {
	edges []buildEdge
	vals  []Value
}

type builder struct {
	nodes []buildNode
	keys  int
}

// Build constructs an Index
// entries whose code is in either blacklist are dropped, every blacklisted
// word is inserted with the Sentinel value and empty codes are ignored
func Build(entries []Entry, codeBlacklist, wordBlacklist map[string]struct{}) *Index {
	b := &builder{nodes: make([]buildNode, 1, len(entries)+1)}
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		if _, ok := codeBlacklist[e.Code]; ok {
			continue
		}
		if _, ok := wordBlacklist[e.Code]; ok {
			continue
		}
		b.insert(e.Code, Value{LocationID: e.LocationID, Type: e.Type})
	}

	words := make([]string, 0, len(wordBlacklist))
	for w := range wordBlacklist {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		if w != "" {
			b.insert(w, Sentinel)
		}
	}
	return b.flatten()
}

func (b *builder) insert(key string, v Value) {
	n := int32(0)
	for i := 0; i < len(key); i++ {
		n = b.child(n, key[i])
	}
	node := &b.nodes[n]
	for _, have := range node.vals {
		if have == v {
			return
		}
	}
	if len(node.vals) == 0 {
		b.keys++
	}
	node.vals = append(node.vals, v)
}

// child returns the child of n along c, creating it when missing
func (b *builder) child(n int32, c byte) int32 {
	edges := b.nodes[n].edges
	i := sort.Search(len(edges), func(i int) bool { return edges[i].b >= c })
	if i < len(edges) && edges[i].b == c {
		return edges[i].child
	}
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, buildNode{})
	edges = append(edges, buildEdge{})
	copy(edges[i+1:], edges[i:])
	edges[i] = buildEdge{b: c, child: id}
	b.nodes[n].edges = edges
	return id
}

func (b *builder) flatten() *Index {
	var nEdges, nVals int
	for _, n := range b.nodes {
		nEdges += len(n.edges)
		nVals += len(n.vals)
	}
	idx := &Index{
		edgeOff:   make([]int32, len(b.nodes)+1),
		edgeByte:  make([]byte, 0, nEdges),
		edgeChild: make([]int32, 0, nEdges),
		valOff:    make([]int32, len(b.nodes)+1),
		vals:      make([]Value, 0, nVals),
		keys:      b.keys,
	}
	for i, n := range b.nodes {
		idx.edgeOff[i] = int32(len(idx.edgeByte))
		idx.valOff[i] = int32(len(idx.vals))
		for _, e := range n.edges {
			idx.edgeByte = append(idx.edgeByte, e.b)
			idx.edgeChild = append(idx.edgeChild, e.child)
		}
		idx.vals = append(idx.vals, n.vals...)
	}
	idx.edgeOff[len(b.nodes)] = int32(len(idx.edgeByte))
	idx.valOff[len(b.nodes)] = int32(len(idx.vals))
	return idx
}

// step follows the edge of n labeled c; ok is false when there is none
func (x *Index) step(n int32, c byte) (int32, bool) {
	lo, hi := int(x.edgeOff[n]), int(x.edgeOff[n+1])
	edges := x.edgeByte[lo:hi]
	i := sort.Search(len(edges), func(i int) bool { return edges[i] >= c })
	if i < len(edges) && edges[i] == c {
		return x.edgeChild[lo+i], true
	}
	return 0, false
}

func (x *Index) hasValues(n int32) bool { return x.valOff[n+1] > x.valOff[n] }

// PrefixesOf returns every key that is a prefix of s, shortest first
func (x *Index) PrefixesOf(s string) []string {
	if x == nil || len(x.edgeOff) == 0 {
		return nil
	}
	var out []string
	n := int32(0)
	for i := 0; i < len(s); i++ {
		next, ok := x.step(n, s[i])
		if !ok {
			break
		}
		n = next
		if x.hasValues(n) {
			out = append(out, s[:i+1])
		}
	}
	return out
}

// Lookup returns the values stored under key in insertion order, nil if absent
// the returned slice must not be modified
func (x *Index) Lookup(key string) []Value {
	if x == nil || key == "" || len(x.edgeOff) == 0 {
		return nil
	}
	n := int32(0)
	for i := 0; i < len(key); i++ {
		next, ok := x.step(n, key[i])
		if !ok {
			return nil
		}
		n = next
	}
	lo, hi := x.valOff[n], x.valOff[n+1]
	if lo == hi {
		return nil
	}
	return x.vals[lo:hi:hi]
}

// Len is the number of distinct keys
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.keys
}

// Nodes is the number of trie nodes including the root
func (x *Index) Nodes() int {
	if x == nil || len(x.edgeOff) == 0 {
		return 0
	}
	return len(x.edgeOff) - 1
}
