// Package repo persists hints and associations in Postgres
package repo

import (
	"context"

	"github.com/alexmarder/hloc/internal/core/codeindex"
	"github.com/alexmarder/hloc/internal/modkit/repokit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/store"
	"github.com/alexmarder/hloc/internal/services/hints/domain"
)

// chunk keeps bind args under the Postgres limit of 65535
const chunk = 5000

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the hints repository
type Storage interface {
	domain.Writer
	ForLabel(ctx context.Context, labelID int64) ([]domain.LabelHint, error)
}

// UpsertHints implements domain.Writer; keys must be unique
func (s *pg) UpsertHints(ctx context.Context, keys []domain.NaturalKey) (map[domain.NaturalKey]int64, error) {
	out := make(map[domain.NaturalKey]int64, len(keys))
	for start := 0; start < len(keys); start += chunk {
		part := keys[start:min(start+chunk, len(keys))]
		args := make([]any, 0, len(part)*3)
		for _, k := range part {
			if !k.Type.Valid() {
				return nil, perr.InvalidArgf("refusing to persist hint %q with code type %s", k.Code, k.Type)
			}
			args = append(args, k.LocationID, k.Code, int16(k.Type))
		}
		// the no-op update makes RETURNING yield existing rows too
		sql := `INSERT INTO location_hints (location_id, code, code_type) VALUES ` +
			store.Placeholders(len(part), 3, 1) + `
			ON CONFLICT (location_id, code, code_type) DO UPDATE SET code = EXCLUDED.code
			RETURNING id, location_id, code, code_type`
		err := store.Each(ctx, s.q, func(r store.Row) error {
			var (
				id int64
				k  domain.NaturalKey
				ct int16
			)
			if err := r.Scan(&id, &k.LocationID, &k.Code, &ct); err != nil {
				return err
			}
			k.Type = codeindex.CodeType(ct)
			out[k] = id
			return nil
		}, sql, args...)
		if err != nil {
			return nil, perr.FromPostgres(err, "upsert hints")
		}
	}
	return out, nil
}

// InsertAssociations implements domain.Writer
func (s *pg) InsertAssociations(ctx context.Context, as []domain.Association) (int64, error) {
	var n int64
	for start := 0; start < len(as); start += chunk {
		part := as[start:min(start+chunk, len(as))]
		args := make([]any, 0, len(part)*2)
		for _, a := range part {
			args = append(args, a.HintID, a.LabelID)
		}
		tag, err := s.q.Exec(ctx, `INSERT INTO location_hint_labels (location_hint_id, domain_label_id) VALUES `+
			store.Placeholders(len(part), 2, 1)+` ON CONFLICT DO NOTHING`, args...)
		if err != nil {
			return n, perr.FromPostgres(err, "insert associations")
		}
		n += tag.RowsAffected()
	}
	return n, nil
}

// DeleteAssociations implements domain.Writer
func (s *pg) DeleteAssociations(ctx context.Context, labelID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM location_hint_labels WHERE domain_label_id = $1`, labelID)
	if err != nil {
		return 0, perr.FromPostgresf(err, "delete associations of label %d", labelID)
	}
	return tag.RowsAffected(), nil
}

// ForLabel lists the hints associated with a label
func (s *pg) ForLabel(ctx context.Context, labelID int64) ([]domain.LabelHint, error) {
	out, err := store.Many(ctx, s.q, func(r store.Row) (domain.LabelHint, error) {
		var (
			h  domain.LabelHint
			ct int16
		)
		err := r.Scan(&h.HintID, &h.LocationID, &h.Code, &ct)
		h.Type = codeindex.CodeType(ct)
		return h, err
	}, `
		SELECT h.id, h.location_id, h.code, h.code_type
		FROM location_hint_labels a
		JOIN location_hints h ON h.id = a.location_hint_id
		WHERE a.domain_label_id = $1
		ORDER BY h.id`, labelID)
	if err != nil {
		return nil, perr.FromPostgresf(err, "hints of label %d", labelID)
	}
	return out, nil
}
