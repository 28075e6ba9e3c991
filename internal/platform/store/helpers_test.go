package store

import (
	"context"
	"errors"
	"testing"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
)

type labelRow struct {
	ID   int64
	Name string
}

func scanLabel(r Row) (labelRow, error) {
	var l labelRow
	err := r.Scan(&l.ID, &l.Name)
	return l, err
}

func TestExecOne(t *testing.T) {
	ctx := context.Background()
	if err := ExecOne(ctx, &fakeQuerier{execN: 1}, "UPDATE x"); err != nil {
		t.Fatalf("one row: %v", err)
	}
	if err := ExecOne(ctx, &fakeQuerier{execN: 0}, "UPDATE x"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("zero rows: %v", err)
	}
	if err := ExecOne(ctx, &fakeQuerier{execN: 2}, "UPDATE x"); err == nil {
		t.Fatalf("two rows should fail")
	}
	boom := errors.New("boom")
	if err := ExecOne(ctx, &fakeQuerier{execErr: boom}, "UPDATE x"); !errors.Is(err, boom) {
		t.Fatalf("exec error: %v", err)
	}
	tag, err := Exec(ctx, &fakeQuerier{execN: 4}, "DELETE")
	if err != nil || tag.RowsAffected() != 4 {
		t.Fatalf("Exec = %v,%v", tag, err)
	}
}

func TestScalar(t *testing.T) {
	ctx := context.Background()
	n, err := Scalar[int64](ctx, &fakeQuerier{row: fakeRow{vals: []any{int64(42)}}}, "SELECT count(*)")
	if err != nil || n != 42 {
		t.Fatalf("Scalar = %d,%v", n, err)
	}
	if _, err := Scalar[int64](ctx, &fakeQuerier{row: fakeRow{err: errors.New("no rows")}}, "SELECT"); err == nil {
		t.Fatalf("expected scan error")
	}
}

func TestOne(t *testing.T) {
	ctx := context.Background()

	q := &fakeQuerier{rows: newFakeRows([]string{"id", "name"}, []any{int64(7), "fra"})}
	got, err := One(ctx, q, scanLabel, "SELECT")
	if err != nil || got != (labelRow{7, "fra"}) || !q.rows.closed {
		t.Fatalf("One = %+v,%v closed=%v", got, err, q.rows.closed)
	}

	q = &fakeQuerier{rows: newFakeRows([]string{"id", "name"})}
	if _, err := One(ctx, q, scanLabel, "SELECT"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("empty: %v", err)
	}

	q = &fakeQuerier{rows: newFakeRows(nil, []any{int64(1), "a"}, []any{int64(2), "b"})}
	if _, err := One(ctx, q, scanLabel, "SELECT"); err == nil {
		t.Fatalf("expected more-than-one error")
	}

	q = &fakeQuerier{queryErr: errors.New("down")}
	if _, err := One(ctx, q, scanLabel, "SELECT"); err == nil {
		t.Fatalf("expected query error")
	}
}

func TestManyAndEach(t *testing.T) {
	ctx := context.Background()
	mk := func() *fakeQuerier {
		return &fakeQuerier{rows: newFakeRows(nil, []any{int64(1), "ber"}, []any{int64(2), "lon"})}
	}

	got, err := Many(ctx, mk(), scanLabel, "SELECT")
	if err != nil || len(got) != 2 || got[1].Name != "lon" {
		t.Fatalf("Many = %+v,%v", got, err)
	}

	var names []string
	err = Each(ctx, mk(), func(r Row) error {
		l, err := scanLabel(r)
		names = append(names, l.Name)
		return err
	}, "SELECT")
	if err != nil || len(names) != 2 {
		t.Fatalf("Each = %v,%v", names, err)
	}

	stop := errors.New("stop")
	if err := Each(ctx, mk(), func(Row) error { return stop }, "SELECT"); !errors.Is(err, stop) {
		t.Fatalf("Each should surface callback error, got %v", err)
	}

	q := mk()
	q.rows.err = errors.New("conn reset")
	if _, err := Many(ctx, q, scanLabel, "SELECT"); err == nil {
		t.Fatalf("Many should surface rows.Err")
	}
}

func TestPlaceholders(t *testing.T) {
	cases := []struct {
		rows, cols, start int
		want              string
	}{
		{0, 3, 1, ""},
		{1, 1, 1, "($1)"},
		{2, 3, 1, "($1,$2,$3),($4,$5,$6)"},
		{2, 2, 5, "($5,$6),($7,$8)"},
	}
	for _, c := range cases {
		if got := Placeholders(c.rows, c.cols, c.start); got != c.want {
			t.Fatalf("Placeholders(%d,%d,%d) = %q want %q", c.rows, c.cols, c.start, got, c.want)
		}
	}
}
