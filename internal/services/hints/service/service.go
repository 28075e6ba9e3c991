// Package service hands out hint write sessions and answers per label queries
package service

import (
	"context"

	"github.com/alexmarder/hloc/internal/modkit/repokit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/services/hints/domain"
	"github.com/alexmarder/hloc/internal/services/hints/repo"
)

// Service implements domain.SessionPort and domain.QueryPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Log    logger.Logger
}

// New constructs the hints service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], log logger.Logger) *Service {
	return &Service{DB: db, Binder: binder, Log: log}
}

// Begin implements domain.SessionPort
func (s *Service) Begin(ctx context.Context) (domain.Session, error) {
	if s.DB == nil {
		return nil, perr.Unavailablef("hints: postgres not configured")
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, perr.FromPostgres(err, "begin hints session")
	}
	return &session{Storage: repokit.MustBind(s.Binder, tx), tx: tx}, nil
}

// ForLabel implements domain.QueryPort
func (s *Service) ForLabel(ctx context.Context, labelID int64) ([]domain.LabelHint, error) {
	if labelID <= 0 {
		return nil, perr.WithField(perr.InvalidArgf("label id must be positive"), "label_id")
	}
	if s.DB == nil {
		return nil, perr.Unavailablef("hints: postgres not configured")
	}
	out, err := repokit.MustBind(s.Binder, s.DB).ForLabel(ctx, labelID)
	if out == nil && err == nil {
		out = []domain.LabelHint{}
	}
	return out, err
}

type session struct {
	repo.Storage
	tx repokit.Tx
}

func (s *session) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return perr.FromPostgres(err, "commit hints session")
	}
	return nil
}

func (s *session) Rollback(ctx context.Context) error {
	return s.tx.Rollback(ctx)
}
