// Package fakedb is a scripted store.RowQuerier for repository tests
package fakedb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/alexmarder/hloc/internal/platform/store"
)

// Call is one recorded statement
type Call struct {
	SQL  string
	Args []any
}

// Result scripts the answer to one statement
type Result struct {
	Rows     [][]any
	Affected int64
	Err      error
}

// DB records every statement and answers from a FIFO script; an empty script answers with no rows
type DB struct {
	mu     sync.Mutex
	calls  []Call
	script []Result
	// Commits and Rollbacks count Tx outcomes
	Commits   int
	Rollbacks int
}

// New returns a DB answering with the given results in order
func New(results ...Result) *DB { return &DB{script: results} }

// Push appends results to the script
func (d *DB) Push(results ...Result) {
	d.mu.Lock()
	d.script = append(d.script, results...)
	d.mu.Unlock()
}

// Calls returns a copy of the recorded statements
func (d *DB) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Matching returns the recorded statements whose SQL contains substr
func (d *DB) Matching(substr string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if strings.Contains(c.SQL, substr) {
			out = append(out, c)
		}
	}
	return out
}

func (d *DB) next(sql string, args []any) Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{SQL: sql, Args: args})
	if len(d.script) == 0 {
		return Result{}
	}
	r := d.script[0]
	d.script = d.script[1:]
	return r
}

// Exec implements store.RowQuerier
func (d *DB) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	r := d.next(sql, args)
	if r.Err != nil {
		return nil, r.Err
	}
	return tag(r.Affected), nil
}

// Query implements store.RowQuerier
func (d *DB) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	r := d.next(sql, args)
	if r.Err != nil {
		return nil, r.Err
	}
	return &rows{data: r.Rows, i: -1}, nil
}

// QueryRow implements store.RowQuerier
func (d *DB) QueryRow(_ context.Context, sql string, args ...any) store.Row {
	r := d.next(sql, args)
	if r.Err != nil {
		return errRow{r.Err}
	}
	if len(r.Rows) == 0 {
		return errRow{ErrNoRows}
	}
	return &rows{data: r.Rows, i: 0}
}

// Tx runs fn against the same DB and counts the outcome
func (d *DB) Tx(ctx context.Context, fn func(store.RowQuerier) error) error {
	err := fn(d)
	d.mu.Lock()
	if err != nil {
		d.Rollbacks++
	} else {
		d.Commits++
	}
	d.mu.Unlock()
	return err
}

// Begin hands out a transaction over the same DB
func (d *DB) Begin(context.Context) (store.Tx, error) { return &tx{DB: d}, nil }

type tx struct {
	*DB
	done bool
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return errors.New("fakedb: tx closed")
	}
	t.done = true
	t.mu.Lock()
	t.DB.Commits++
	t.mu.Unlock()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.mu.Lock()
	t.DB.Rollbacks++
	t.mu.Unlock()
	return nil
}

// ErrNoRows is what QueryRow scans return for an empty result
var ErrNoRows = errors.New("fakedb: no rows")

type tag int64

func (t tag) String() string      { return fmt.Sprintf("FAKE %d", int64(t)) }
func (t tag) RowsAffected() int64 { return int64(t) }

type errRow struct{ err error }

func (e errRow) Scan(...any) error { return e.err }

type rows struct {
	data [][]any
	i    int
}

func (r *rows) Next() bool {
	r.i++
	return r.i < len(r.data)
}

func (r *rows) Scan(dest ...any) error {
	if r.i < 0 || r.i >= len(r.data) {
		return errors.New("fakedb: scan outside rows")
	}
	return assign(r.data[r.i], dest)
}

func (r *rows) Err() error        { return nil }
func (r *rows) Close()            {}
func (r *rows) Columns() []string { return nil }

// assign copies src into dest pointers; nil leaves a zero value,
// a value is stored through one extra pointer level when dest is **T
func assign(src []any, dest []any) error {
	if len(src) != len(dest) {
		return fmt.Errorf("fakedb: row has %d columns, scan wants %d", len(src), len(dest))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("fakedb: dest %d is not a pointer", i)
		}
		target := dv.Elem()
		if src[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		sv := reflect.ValueOf(src[i])
		switch {
		case sv.Type().AssignableTo(target.Type()):
			target.Set(sv)
		case target.Kind() == reflect.Pointer && sv.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(sv)
			target.Set(p)
		case sv.Type().ConvertibleTo(target.Type()) && sv.Kind() != reflect.String:
			target.Set(sv.Convert(target.Type()))
		case target.Kind() == reflect.Pointer && sv.Type().ConvertibleTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(sv.Convert(target.Type().Elem()))
			target.Set(p)
		default:
			return fmt.Errorf("fakedb: cannot scan %T into %s", src[i], target.Type())
		}
	}
	return nil
}
