// Package domain defines domains, their labels and the shard paging contract
package domain

import (
	"strings"
	"time"

	"github.com/alexmarder/hloc/internal/core/normalize"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
)

// Classification decides whether a domain joins the search population
type Classification string

const (
	Valid             Classification = "valid"
	IPEncoded         Classification = "ip_encoded"
	// Blacklisted is set on import when an address allow list is configured and misses the record's address
	Blacklisted       Classification = "blacklisted"
	BadTLD            Classification = "bad_tld"
	InvalidCharacters Classification = "invalid_characters"
)

// IP versions accepted by shard filters
const (
	IPAny = ""
	IPv4  = "ipv4"
	IPv6  = "ipv6"
)

// Domain is one reverse name with its labels ordered TLD first
type Domain struct {
	ID             int64
	Name           string
	IPv4           string
	IPv6           string
	Classification Classification
	Labels         []Label
}

// Label is one dot separated component shared by every domain that contains it
type Label struct {
	ID           int64
	Name         string
	Position     int
	LastSearched *time.Time
	HintCount    int
}

// SubLabels splits the lowercased label on hyphens
func (l Label) SubLabels() []string {
	return strings.Split(normalize.Label(l.Name), "-")
}

// SearchedSince reports whether the label was searched at or after t
func (l Label) SearchedSince(t time.Time) bool {
	return l.LastSearched != nil && !l.LastSearched.Before(t)
}

// SplitLabels returns the labels of name TLD first; empty labels are dropped
func SplitLabels(name string) []string {
	parts := strings.Split(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "."), ".")
	out := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			out = append(out, parts[i])
		}
	}
	return out
}

// ShardInput selects one page of one worker's partition
type ShardInput struct {
	Worker    int
	Workers   int
	AfterID   int64
	Limit     int
	Classes   []Classification
	IPVersion string
}

// Validate rejects inputs that cannot describe a partition
func (in ShardInput) Validate() error {
	if in.Workers < 1 {
		return perr.WithField(perr.InvalidArgf("workers must be positive, got %d", in.Workers), "workers")
	}
	if in.Worker < 0 || in.Worker >= in.Workers {
		return perr.WithField(perr.InvalidArgf("worker index %d outside [0,%d)", in.Worker, in.Workers), "worker")
	}
	if in.Limit < 1 {
		return perr.WithField(perr.InvalidArgf("page size must be positive, got %d", in.Limit), "limit")
	}
	if len(in.Classes) == 0 {
		return perr.WithField(perr.InvalidArgf("no domain classification selected"), "classes")
	}
	return ValidateIPVersion(in.IPVersion)
}

// ValidateIPVersion accepts "", ipv4 and ipv6
func ValidateIPVersion(v string) error {
	switch v {
	case IPAny, IPv4, IPv6:
		return nil
	}
	return perr.WithField(perr.InvalidArgf("unknown ip version %q (want ipv4 or ipv6)", v), "ip_version")
}

// Record is one line of a reverse DNS dump
type Record struct {
	IP   string
	Name string
}
