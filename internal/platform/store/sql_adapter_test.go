package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexmarder/hloc/internal/platform/store/pg"
)

type recTracer struct{ evs []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.evs = append(r.evs, ev) }

func TestTxQuerier_TracesAndEndsOnce(t *testing.T) {
	ctx := context.Background()
	ftx := &pgxFakeTx{}
	tr := &recTracer{}
	tx := &txQuerier{tx: ftx, tracer: tr, slowUS: 0}

	ct, err := tx.Exec(ctx, "INSERT INTO location_hint_labels VALUES ($1,$2)", 1, 2)
	if err != nil || ct.RowsAffected() != 3 {
		t.Fatalf("Exec = %v,%v", ct, err)
	}
	if err := tx.QueryRow(ctx, "SELECT 1").Scan(); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Query(ctx, "SELECT 2"); err == nil {
		t.Fatalf("expected fake query error")
	}
	if len(tr.evs) != 3 {
		t.Fatalf("traced %d events", len(tr.evs))
	}
	// slowUS 0 marks everything slow
	if !tr.evs[0].Slow || tr.evs[2].Err == nil {
		t.Fatalf("events = %+v", tr.evs)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err == nil {
		t.Fatalf("second commit should fail")
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit should be a no-op, got %v", err)
	}
	if ftx.committed != 1 || ftx.rolledBack != 0 {
		t.Fatalf("commit=%d rollback=%d", ftx.committed, ftx.rolledBack)
	}
}

func TestTxQuerier_RollbackOnce(t *testing.T) {
	ctx := context.Background()
	ftx := &pgxFakeTx{execErr: errors.New("23505")}
	tx := &txQuerier{tx: ftx, slowUS: -1}

	if _, err := tx.Exec(ctx, "INSERT"); err == nil {
		t.Fatalf("expected exec error")
	}
	_ = tx.Rollback(ctx)
	_ = tx.Rollback(ctx)
	if ftx.rolledBack != 1 {
		t.Fatalf("rolledBack = %d", ftx.rolledBack)
	}
}

func TestEmit_NilTracerIsNoop(t *testing.T) {
	emit(context.Background(), nil, 0, "SELECT 1", nil, time.Now(), nil)
}
