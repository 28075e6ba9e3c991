//go:build integration_pg

package migrate_test

import (
	"context"
	"testing"

	"github.com/alexmarder/hloc/internal/platform/store"
	"github.com/alexmarder/hloc/internal/platform/store/migrate"
	"github.com/alexmarder/hloc/internal/platform/testkit/pgtest"
)

func TestApply_IdempotentAndTxCommit(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()

	// second apply is a no-op
	if _, err := migrate.Apply(ctx, s.PG); err != nil {
		t.Fatalf("re-apply: %v", err)
	}

	tx, err := s.PG.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO domain_labels (name) VALUES ('fra1'), ('ber2')`); err != nil {
		t.Fatal(err)
	}
	// not visible outside the tx yet
	n, err := store.Scalar[int64](ctx, s.PG, `SELECT count(*) FROM domain_labels`)
	if err != nil || n != 0 {
		t.Fatalf("before commit: %d,%v", n, err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	n, err = store.Scalar[int64](ctx, s.PG, `SELECT count(*) FROM domain_labels`)
	if err != nil || n != 2 {
		t.Fatalf("after commit: %d,%v", n, err)
	}

	tx, err = s.PG.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM domain_labels`); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}
	n, _ = store.Scalar[int64](ctx, s.PG, `SELECT count(*) FROM domain_labels`)
	if n != 2 {
		t.Fatalf("rollback lost rows: %d", n)
	}
}
