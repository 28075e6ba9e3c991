package store

import (
	"context"
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRows is an in-memory Rows for helper tests
type fakeRows struct {
	cols   []string
	data   [][]any
	idx    int
	err    error
	closed bool
}

func newFakeRows(cols []string, data ...[]any) *fakeRows {
	return &fakeRows{cols: cols, data: data, idx: -1}
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("scan out of range")
	}
	return assignAll(r.data[r.idx], dest)
}

func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            { r.closed = true }
func (r *fakeRows) Columns() []string { return r.cols }

func assignAll(src []any, dest []any) error {
	if len(src) != len(dest) {
		return errors.New("dest len mismatch")
	}
	for i := range dest {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer {
			return errors.New("dest not pointer")
		}
		sv := reflect.ValueOf(src[i])
		if !sv.Type().ConvertibleTo(dv.Elem().Type()) {
			return errors.New("type mismatch")
		}
		dv.Elem().Set(sv.Convert(dv.Elem().Type()))
	}
	return nil
}

type fakeTag struct{ n int64 }

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return t.n }

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignAll(r.vals, dest)
}

// fakeQuerier records statements and replays canned results
type fakeQuerier struct {
	execN    int64
	execErr  error
	rows     *fakeRows
	queryErr error
	row      fakeRow
	sqls     []string
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return fakeTag{f.execN}, f.execErr
}

func (f *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (Rows, error) {
	f.sqls = append(f.sqls, sql)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) Row {
	f.sqls = append(f.sqls, sql)
	return f.row
}

// pgx-level fakes for the transaction adapter

type pgxRow struct{ err error }

func (r pgxRow) Scan(...any) error { return r.err }

type pgxFakeTx struct {
	execErr    error
	committed  int
	rolledBack int
	sqls       []string
}

func (f *pgxFakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return pgconn.NewCommandTag("INSERT 0 3"), f.execErr
}

func (f *pgxFakeTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.sqls = append(f.sqls, sql)
	return nil, errors.New("query not supported by fake")
}

func (f *pgxFakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.sqls = append(f.sqls, sql)
	return pgxRow{}
}

func (f *pgxFakeTx) Commit(context.Context) error   { f.committed++; return nil }
func (f *pgxFakeTx) Rollback(context.Context) error { f.rolledBack++; return nil }
