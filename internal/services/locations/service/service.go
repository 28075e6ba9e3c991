// Package service implements the location catalog service
package service

import (
	"context"
	"sort"

	"github.com/alexmarder/hloc/internal/modkit/repokit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	dom "github.com/alexmarder/hloc/internal/services/locations/domain"
	"github.com/alexmarder/hloc/internal/services/locations/repo"

	"github.com/go-playground/validator/v10"
)

// Service implements domain.CatalogPort and domain.ImportPort against Postgres
type Service struct {
	DB       repokit.TxRunner
	Binder   repokit.Binder[repo.Storage]
	Log      logger.Logger
	validate *validator.Validate
}

// New constructs the catalog service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], log logger.Logger) *Service {
	return &Service{DB: db, Binder: binder, Log: log, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// All implements domain.CatalogPort
func (s *Service) All(ctx context.Context) ([]dom.Location, error) {
	if s.DB == nil {
		return nil, perr.Unavailablef("locations: postgres not configured")
	}
	locs, err := repokit.MustBind(s.Binder, s.DB).All(ctx)
	if err != nil {
		return nil, perr.WithOp(err, "locations.all")
	}
	return locs, nil
}

// Import implements domain.ImportPort; the whole batch is written in one transaction
// later duplicates of a location id win
func (s *Service) Import(ctx context.Context, locs []dom.Location) (int, error) {
	if s.DB == nil {
		return 0, perr.Unavailablef("locations: postgres not configured")
	}
	locs = dedupLocations(locs)
	for i := range locs {
		if err := s.validate.Struct(locs[i]); err != nil {
			return 0, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "location %d", locs[i].ID), "locations")
		}
	}
	states := statesOf(locs)

	err := repokit.WithTx(ctx, s.DB, s.Binder, func(st repo.Storage) error {
		ids, err := st.UpsertStates(ctx, states)
		if err != nil {
			return err
		}
		if err := st.UpsertLocations(ctx, locs, ids); err != nil {
			return err
		}
		return st.ReplaceCodes(ctx, locs)
	})
	if err != nil {
		return 0, perr.WithOp(err, "locations.import")
	}
	s.Log.Info().Int("locations", len(locs)).Int("states", len(states)).Msg("catalog imported")
	return len(locs), nil
}

func dedupLocations(in []dom.Location) []dom.Location {
	pos := make(map[int64]int, len(in))
	out := make([]dom.Location, 0, len(in))
	for _, l := range in {
		if i, ok := pos[l.ID]; ok {
			out[i] = l
			continue
		}
		pos[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

func statesOf(locs []dom.Location) []dom.State {
	byISO := map[string]dom.State{}
	for _, l := range locs {
		if l.State == nil || l.State.ISO3166Code == "" {
			continue
		}
		prev, ok := byISO[l.State.ISO3166Code]
		if !ok || prev.Name == "" {
			byISO[l.State.ISO3166Code] = *l.State
		}
	}
	out := make([]dom.State, 0, len(byISO))
	for _, st := range byISO {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISO3166Code < out[j].ISO3166Code })
	return out
}
