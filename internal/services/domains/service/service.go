// Package service implements domain paging, label bookkeeping and reverse DNS import
package service

import (
	"context"
	"net/netip"
	"time"

	"github.com/alexmarder/hloc/internal/modkit/repokit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	dom "github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/domains/repo"
)

// Config for the domains service
type Config struct {
	// MaxPage caps ShardInput.Limit
	MaxPage int
	// Allowed restricts import to these addresses when non nil; others are blacklisted
	Allowed map[netip.Addr]struct{}
}

// Service implements domain.ShardPort, domain.SearchedPort and domain.ImportPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Log    logger.Logger
	Cfg    Config
}

// New constructs the domains service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], log logger.Logger, cfg Config) *Service {
	if cfg.MaxPage <= 0 {
		cfg.MaxPage = 10000
	}
	return &Service{DB: db, Binder: binder, Log: log, Cfg: cfg}
}

func (s *Service) storage() (repo.Storage, error) {
	if s.DB == nil {
		return nil, perr.Unavailablef("domains: postgres not configured")
	}
	return repokit.MustBind(s.Binder, s.DB), nil
}

// ListShard implements domain.ShardPort
func (s *Service) ListShard(ctx context.Context, in dom.ShardInput) ([]dom.Domain, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Limit > s.Cfg.MaxPage {
		in.Limit = s.Cfg.MaxPage
	}
	st, err := s.storage()
	if err != nil {
		return nil, err
	}
	return st.ListShard(ctx, in)
}

// CountPopulation implements domain.ShardPort
func (s *Service) CountPopulation(ctx context.Context, classes []dom.Classification, ipVersion string) (int64, error) {
	if err := dom.ValidateIPVersion(ipVersion); err != nil {
		return 0, err
	}
	st, err := s.storage()
	if err != nil {
		return 0, err
	}
	return st.CountPopulation(ctx, classes, ipVersion)
}

// TouchSearched implements domain.SearchedPort; each call commits on its own
func (s *Service) TouchSearched(ctx context.Context, labelID int64, at time.Time) error {
	if s.DB == nil {
		return perr.Unavailablef("domains: postgres not configured")
	}
	return repokit.WithTx(ctx, s.DB, s.Binder, func(st repo.Storage) error {
		return st.TouchSearched(ctx, labelID, at)
	})
}

// classify applies the allow list on top of dom.Classify; invalid characters still win
func (s *Service) classify(ip netip.Addr, name string) dom.Classification {
	c := dom.Classify(ip, name)
	if s.Cfg.Allowed == nil || c == dom.InvalidCharacters {
		return c
	}
	if _, ok := s.Cfg.Allowed[ip.Unmap()]; !ok {
		return dom.Blacklisted
	}
	return c
}

// Import implements domain.ImportPort; records with an unparsable address are skipped
// and a later record for the same name wins
func (s *Service) Import(ctx context.Context, recs []dom.Record) (dom.ImportStats, error) {
	stats := dom.ImportStats{ByClass: map[dom.Classification]int{}}
	if s.DB == nil {
		return stats, perr.Unavailablef("domains: postgres not configured")
	}

	pos := map[string]int{}
	var ds []dom.Domain
	for _, r := range recs {
		ip, err := netip.ParseAddr(r.IP)
		if err != nil {
			stats.Skipped++
			s.Log.Debug().Str("ip", r.IP).Str("name", r.Name).Msg("skipping record with bad address")
			continue
		}
		labels := dom.SplitLabels(r.Name)
		if len(labels) == 0 {
			stats.Skipped++
			continue
		}
		d := dom.Domain{Name: joinName(labels), Classification: s.classify(ip, r.Name)}
		if ip.Is4() || ip.Is4In6() {
			d.IPv4 = ip.Unmap().String()
		} else {
			d.IPv6 = ip.String()
		}
		for i, l := range labels {
			d.Labels = append(d.Labels, dom.Label{Name: l, Position: i})
		}
		if i, ok := pos[d.Name]; ok {
			ds[i] = d
			continue
		}
		pos[d.Name] = len(ds)
		ds = append(ds, d)
	}
	if len(ds) == 0 {
		return stats, nil
	}

	err := repokit.WithTx(ctx, s.DB, s.Binder, func(st repo.Storage) error {
		domainIDs, err := st.UpsertDomains(ctx, ds)
		if err != nil {
			return err
		}
		labelIDs, err := st.UpsertLabels(ctx, uniqueLabels(ds))
		if err != nil {
			return err
		}
		links := make([]repo.Link, 0, len(ds)*4)
		for _, d := range ds {
			did, ok := domainIDs[d.Name]
			if !ok {
				return perr.DBf("domain %q missing from upsert result", d.Name)
			}
			for _, l := range d.Labels {
				links = append(links, repo.Link{DomainID: did, LabelID: labelIDs[l.Name], Position: l.Position})
			}
		}
		return st.LinkLabels(ctx, links)
	})
	if err != nil {
		return stats, perr.WithOp(err, "domains.import")
	}

	stats.Domains = len(ds)
	for _, d := range ds {
		stats.ByClass[d.Classification]++
	}
	return stats, nil
}

// joinName rebuilds the dotted name from TLD first labels
func joinName(labels []string) string {
	n := len(labels) - 1
	for _, l := range labels {
		n += len(l)
	}
	b := make([]byte, 0, n)
	for i := len(labels) - 1; i >= 0; i-- {
		b = append(b, labels[i]...)
		if i > 0 {
			b = append(b, '.')
		}
	}
	return string(b)
}

func uniqueLabels(ds []dom.Domain) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, d := range ds {
		for _, l := range d.Labels {
			if _, ok := seen[l.Name]; ok {
				continue
			}
			seen[l.Name] = struct{}{}
			out = append(out, l.Name)
		}
	}
	return out
}
