// Package repo implements domain paging and label bookkeeping on Postgres
package repo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/alexmarder/hloc/internal/modkit/repokit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/store"
	"github.com/alexmarder/hloc/internal/services/domains/domain"
)

const chunk = 1000

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the domains repository
type Storage interface {
	ListShard(ctx context.Context, in domain.ShardInput) ([]domain.Domain, error)
	CountPopulation(ctx context.Context, classes []domain.Classification, ipVersion string) (int64, error)
	TouchSearched(ctx context.Context, labelID int64, at time.Time) error
	UpsertDomains(ctx context.Context, ds []domain.Domain) (map[string]int64, error)
	UpsertLabels(ctx context.Context, names []string) (map[string]int64, error)
	LinkLabels(ctx context.Context, links []Link) error
}

// Link places a label at a position of a domain
type Link struct {
	DomainID int64
	LabelID  int64
	Position int
}

// populationFilter renders the shared WHERE clause; args are appended
func populationFilter(args *[]any, classes []domain.Classification, ipVersion string) string {
	arg := func(v any) string { *args = append(*args, v); return "$" + strconv.Itoa(len(*args)) }

	cls := make([]string, len(classes))
	for i, c := range classes {
		cls[i] = string(c)
	}
	var sb strings.Builder
	sb.WriteString("d.classification = ANY(" + arg(cls) + ")")
	switch ipVersion {
	case domain.IPv4:
		sb.WriteString(" AND d.ipv4 IS NOT NULL")
	case domain.IPv6:
		sb.WriteString(" AND d.ipv6 IS NOT NULL")
	}
	return sb.String()
}

// ListShard returns the next page of domains with id % Workers = Worker and id > AfterID
func (s *pg) ListShard(ctx context.Context, in domain.ShardInput) ([]domain.Domain, error) {
	var args []any
	arg := func(v any) string { args = append(args, v); return "$" + strconv.Itoa(len(args)) }

	where := populationFilter(&args, in.Classes, in.IPVersion)
	sql := `
		WITH page AS (
			SELECT d.id, d.name, host(d.ipv4) AS ipv4, host(d.ipv6) AS ipv6, d.classification
			FROM domains d
			WHERE ` + where + `
				AND d.id % ` + arg(int64(in.Workers)) + ` = ` + arg(int64(in.Worker)) + `
				AND d.id > ` + arg(in.AfterID) + `
			ORDER BY d.id
			LIMIT ` + arg(in.Limit) + `
		)
		SELECT p.id, p.name, p.ipv4, p.ipv6, p.classification,
			l.id, l.name, k.position, l.last_searched,
			(SELECT count(*) FROM location_hint_labels h WHERE h.domain_label_id = l.id)
		FROM page p
		LEFT JOIN domain_label_links k ON k.domain_id = p.id
		LEFT JOIN domain_labels l ON l.id = k.domain_label_id
		ORDER BY p.id, k.position`

	var out []domain.Domain
	err := store.Each(ctx, s.q, func(r store.Row) error {
		var (
			d         domain.Domain
			ipv4      *string
			ipv6      *string
			cls       string
			labelID   *int64
			labelName *string
			position  *int16
			searched  *time.Time
			hints     int64
		)
		if err := r.Scan(&d.ID, &d.Name, &ipv4, &ipv6, &cls, &labelID, &labelName, &position, &searched, &hints); err != nil {
			return err
		}
		if n := len(out); n == 0 || out[n-1].ID != d.ID {
			d.Classification = domain.Classification(cls)
			if ipv4 != nil {
				d.IPv4 = *ipv4
			}
			if ipv6 != nil {
				d.IPv6 = *ipv6
			}
			out = append(out, d)
		}
		if labelID == nil {
			return nil
		}
		cur := &out[len(out)-1]
		cur.Labels = append(cur.Labels, domain.Label{
			ID:           *labelID,
			Name:         deref(labelName),
			Position:     int(deref(position)),
			LastSearched: searched,
			HintCount:    int(hints),
		})
		return nil
	}, sql, args...)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list shard %d/%d", in.Worker, in.Workers)
	}
	return out, nil
}

// CountPopulation counts the domains a full run would visit
func (s *pg) CountPopulation(ctx context.Context, classes []domain.Classification, ipVersion string) (int64, error) {
	var args []any
	where := populationFilter(&args, classes, ipVersion)
	n, err := store.Scalar[int64](ctx, s.q, `SELECT count(*) FROM domains d WHERE `+where, args...)
	if err != nil {
		return 0, perr.FromPostgres(err, "count domains")
	}
	return n, nil
}

// TouchSearched never moves last_searched backwards; a missing label is ErrNotFound
func (s *pg) TouchSearched(ctx context.Context, labelID int64, at time.Time) error {
	err := store.ExecOne(ctx, s.q,
		`UPDATE domain_labels SET last_searched = GREATEST(COALESCE(last_searched, $2), $2) WHERE id = $1`,
		labelID, at)
	if err == nil || perr.Is(err, perr.ErrNotFound) {
		return err
	}
	return perr.FromPostgresf(err, "touch label %d", labelID)
}

// UpsertDomains inserts domains by name and returns their ids; names must be unique
func (s *pg) UpsertDomains(ctx context.Context, ds []domain.Domain) (map[string]int64, error) {
	out := make(map[string]int64, len(ds))
	for start := 0; start < len(ds); start += chunk {
		part := ds[start:min(start+chunk, len(ds))]
		args := make([]any, 0, len(part)*4)
		for _, d := range part {
			args = append(args, d.Name, nullable(d.IPv4), nullable(d.IPv6), string(d.Classification))
		}
		sql := `INSERT INTO domains (name, ipv4, ipv6, classification) VALUES ` +
			castPlaceholders(len(part)) + `
			ON CONFLICT (name) DO UPDATE SET
				ipv4 = COALESCE(EXCLUDED.ipv4, domains.ipv4),
				ipv6 = COALESCE(EXCLUDED.ipv6, domains.ipv6),
				classification = EXCLUDED.classification
			RETURNING id, name`
		if err := collectIDs(ctx, s.q, out, sql, args); err != nil {
			return nil, perr.FromPostgres(err, "upsert domains")
		}
	}
	return out, nil
}

// UpsertLabels inserts label names and returns their ids; names must be unique
func (s *pg) UpsertLabels(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	for start := 0; start < len(names); start += chunk {
		part := names[start:min(start+chunk, len(names))]
		args := make([]any, 0, len(part))
		for _, n := range part {
			args = append(args, n)
		}
		// the no-op update makes RETURNING yield existing rows too
		sql := `INSERT INTO domain_labels (name) VALUES ` + store.Placeholders(len(part), 1, 1) + `
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, name`
		if err := collectIDs(ctx, s.q, out, sql, args); err != nil {
			return nil, perr.FromPostgres(err, "upsert labels")
		}
	}
	return out, nil
}

// LinkLabels writes label positions; a position keeps its latest label
func (s *pg) LinkLabels(ctx context.Context, links []Link) error {
	for start := 0; start < len(links); start += chunk {
		part := links[start:min(start+chunk, len(links))]
		args := make([]any, 0, len(part)*3)
		for _, l := range part {
			args = append(args, l.DomainID, l.LabelID, int16(l.Position))
		}
		sql := `INSERT INTO domain_label_links (domain_id, domain_label_id, position) VALUES ` +
			store.Placeholders(len(part), 3, 1) + `
			ON CONFLICT (domain_id, position) DO UPDATE SET domain_label_id = EXCLUDED.domain_label_id`
		if _, err := s.q.Exec(ctx, sql, args...); err != nil {
			return perr.FromPostgres(err, "link labels")
		}
	}
	return nil
}

func collectIDs(ctx context.Context, q repokit.Queryer, into map[string]int64, sql string, args []any) error {
	return store.Each(ctx, q, func(r store.Row) error {
		var (
			id   int64
			name string
		)
		if err := r.Scan(&id, &name); err != nil {
			return err
		}
		into[name] = id
		return nil
	}, sql, args...)
}

// castPlaceholders renders domain rows with inet casts for the address columns
func castPlaceholders(rows int) string {
	var sb strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		b := i*4 + 1
		sb.WriteString("($" + strconv.Itoa(b) + ",$" + strconv.Itoa(b+1) + "::inet,$" +
			strconv.Itoa(b+2) + "::inet,$" + strconv.Itoa(b+3) + ")")
	}
	return sb.String()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
