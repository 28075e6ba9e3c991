// Package modkit provides module wiring and core deps
package modkit

import (
	"github.com/alexmarder/hloc/internal/platform/config"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG and CH are nil when the backend is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}

// FromStore builds Deps from an opened store
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG = st.PG
		d.CH = st.CH
	}
	return d
}

// HasPG reports whether a Postgres runner is wired
func (d Deps) HasPG() bool { return d.PG != nil }

// HasCH reports whether a ClickHouse client is wired
func (d Deps) HasCH() bool { return d.CH != nil }
