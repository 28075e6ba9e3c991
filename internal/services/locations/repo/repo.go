// Package repo reads and writes the location catalog in Postgres
package repo

import (
	"context"
	"strings"

	"github.com/alexmarder/hloc/internal/core/codeindex"
	"github.com/alexmarder/hloc/internal/modkit/repokit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/store"
	"github.com/alexmarder/hloc/internal/services/locations/domain"
)

// chunk bounds the rows of one multi-row insert
const chunk = 1000

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the location repository
type Storage interface {
	All(ctx context.Context) ([]domain.Location, error)
	UpsertStates(ctx context.Context, states []domain.State) (map[string]int64, error)
	UpsertLocations(ctx context.Context, locs []domain.Location, stateIDs map[string]int64) error
	ReplaceCodes(ctx context.Context, locs []domain.Location) error
}

// All loads every location with its state and coded identifiers
func (s *pg) All(ctx context.Context) ([]domain.Location, error) {
	var locs []domain.Location
	byID := map[int64]int{}

	err := store.Each(ctx, s.q, func(r store.Row) error {
		var (
			l       domain.Location
			sid     *int64
			sname   *string
			siso    *string
			city    *string
			popultn *int
		)
		if err := r.Scan(&l.ID, &l.Lat, &l.Lon, &city, &popultn, &l.AlternateNames, &l.CLLI, &sid, &sname, &siso); err != nil {
			return err
		}
		if city != nil {
			l.CityName = *city
		}
		if popultn != nil {
			l.Population = *popultn
		}
		if sid != nil {
			l.State = &domain.State{ID: *sid}
			if sname != nil {
				l.State.Name = *sname
			}
			if siso != nil {
				l.State.ISO3166Code = *siso
			}
		}
		byID[l.ID] = len(locs)
		locs = append(locs, l)
		return nil
	}, `
		SELECT l.id, l.lat, l.lon, l.city_name, l.population, l.alternate_names, l.clli,
			s.id, s.name, s.iso3166code
		FROM locations l
		LEFT JOIN states s ON s.id = l.state_id
		ORDER BY l.id`)
	if err != nil {
		return nil, perr.FromPostgres(err, "list locations")
	}

	err = store.Each(ctx, s.q, func(r store.Row) error {
		var (
			id   int64
			code string
			ct   int16
		)
		if err := r.Scan(&id, &code, &ct); err != nil {
			return err
		}
		i, ok := byID[id]
		if !ok {
			return nil
		}
		attachCode(&locs[i], code, codeindex.CodeType(ct))
		return nil
	}, `SELECT location_id, code, code_type FROM location_codes ORDER BY location_id, code_type, code`)
	if err != nil {
		return nil, perr.FromPostgres(err, "list location codes")
	}
	return locs, nil
}

func attachCode(l *domain.Location, code string, t codeindex.CodeType) {
	switch t {
	case codeindex.IATA, codeindex.ICAO, codeindex.FAA:
		if l.Airport == nil {
			l.Airport = &domain.AirportInfo{}
		}
		switch t {
		case codeindex.IATA:
			l.Airport.IATA = append(l.Airport.IATA, code)
		case codeindex.ICAO:
			l.Airport.ICAO = append(l.Airport.ICAO, code)
		default:
			l.Airport.FAA = append(l.Airport.FAA, code)
		}
	case codeindex.LOCODE:
		if l.Locode == nil {
			l.Locode = &domain.LocodeInfo{}
		}
		l.Locode.PlaceCodes = append(l.Locode.PlaceCodes, code)
	}
}

// UpsertStates inserts states keyed by ISO code and returns their ids
func (s *pg) UpsertStates(ctx context.Context, states []domain.State) (map[string]int64, error) {
	out := make(map[string]int64, len(states))
	for start := 0; start < len(states); start += chunk {
		part := states[start:min(start+chunk, len(states))]
		args := make([]any, 0, len(part)*2)
		for _, st := range part {
			args = append(args, nullable(st.Name), st.ISO3166Code)
		}
		sql := `INSERT INTO states (name, iso3166code) VALUES ` + store.Placeholders(len(part), 2, 1) + `
			ON CONFLICT (iso3166code) DO UPDATE SET name = COALESCE(EXCLUDED.name, states.name)
			RETURNING id, iso3166code`
		err := store.Each(ctx, s.q, func(r store.Row) error {
			var (
				id  int64
				iso string
			)
			if err := r.Scan(&id, &iso); err != nil {
				return err
			}
			out[iso] = id
			return nil
		}, sql, args...)
		if err != nil {
			return nil, perr.FromPostgres(err, "upsert states")
		}
	}
	return out, nil
}

// UpsertLocations writes location rows; the state id is resolved by ISO code
func (s *pg) UpsertLocations(ctx context.Context, locs []domain.Location, stateIDs map[string]int64) error {
	const cols = 8
	for start := 0; start < len(locs); start += chunk {
		part := locs[start:min(start+chunk, len(locs))]
		args := make([]any, 0, len(part)*cols)
		for _, l := range part {
			var stateID *int64
			if l.State != nil {
				if id, ok := stateIDs[l.State.ISO3166Code]; ok {
					stateID = &id
				}
			}
			args = append(args, l.ID, l.Lat, l.Lon, nullable(l.CityName), stateID, l.Population,
				nonNil(l.AlternateNames), nonNil(l.CLLI))
		}
		sql := `INSERT INTO locations (id, lat, lon, city_name, state_id, population, alternate_names, clli) VALUES ` +
			store.Placeholders(len(part), cols, 1) + `
			ON CONFLICT (id) DO UPDATE SET
				lat = EXCLUDED.lat, lon = EXCLUDED.lon, city_name = EXCLUDED.city_name,
				state_id = EXCLUDED.state_id, population = EXCLUDED.population,
				alternate_names = EXCLUDED.alternate_names, clli = EXCLUDED.clli`
		if _, err := s.q.Exec(ctx, sql, args...); err != nil {
			return perr.FromPostgres(err, "upsert locations")
		}
	}
	return nil
}

// ReplaceCodes swaps the airport and LOCODE codes of the given locations
func (s *pg) ReplaceCodes(ctx context.Context, locs []domain.Location) error {
	ids := make([]int64, 0, len(locs))
	type row struct {
		id   int64
		code string
		t    codeindex.CodeType
	}
	var rows []row
	for _, l := range locs {
		ids = append(ids, l.ID)
		if a := l.Airport; a != nil {
			for _, c := range a.IATA {
				rows = append(rows, row{l.ID, c, codeindex.IATA})
			}
			for _, c := range a.ICAO {
				rows = append(rows, row{l.ID, c, codeindex.ICAO})
			}
			for _, c := range a.FAA {
				rows = append(rows, row{l.ID, c, codeindex.FAA})
			}
		}
		if l.Locode != nil {
			for _, c := range l.Locode.PlaceCodes {
				rows = append(rows, row{l.ID, c, codeindex.LOCODE})
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM location_codes WHERE location_id = ANY($1)`, ids); err != nil {
		return perr.FromPostgres(err, "clear location codes")
	}
	for start := 0; start < len(rows); start += chunk {
		part := rows[start:min(start+chunk, len(rows))]
		args := make([]any, 0, len(part)*3)
		for _, r := range part {
			args = append(args, r.id, strings.ToLower(r.code), int16(r.t))
		}
		sql := `INSERT INTO location_codes (location_id, code, code_type) VALUES ` +
			store.Placeholders(len(part), 3, 1) + ` ON CONFLICT DO NOTHING`
		if _, err := s.q.Exec(ctx, sql, args...); err != nil {
			return perr.FromPostgres(err, "insert location codes")
		}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
