// Package migrate applies the embedded Postgres schema
package migrate

import (
	"context"
	_ "embed"
	"strings"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded DDL
func Schema() string { return schemaSQL }

// Statements splits a script on statement-terminating semicolons.
// Comment lines are dropped; the schema has no function bodies so this is enough
func Statements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(t, ";") {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Apply runs every schema statement in one transaction
func Apply(ctx context.Context, db store.TxRunner) (int, error) {
	stmts := Statements(schemaSQL)
	err := db.Tx(ctx, func(q store.RowQuerier) error {
		for i, s := range stmts {
			if _, err := q.Exec(ctx, s); err != nil {
				return perr.WithOp(perr.FromPostgresf(err, "schema statement %d", i+1), "migrate")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stmts), nil
}
