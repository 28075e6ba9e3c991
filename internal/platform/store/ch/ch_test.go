package ch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/alexmarder/hloc/internal/platform/testkit"
)

// fakeConn overrides the driver.Conn methods CH calls; anything else panics on the nil embed
type fakeConn struct {
	driver.Conn
	batch   *fakeBatch
	execSQL []string
	pingErr error
	closed  bool
}

func (f *fakeConn) PrepareBatch(_ context.Context, q string, _ ...driver.PrepareBatchOption) (driver.Batch, error) {
	f.batch.query = q
	return f.batch, nil
}
func (f *fakeConn) Exec(_ context.Context, q string, _ ...any) error {
	f.execSQL = append(f.execSQL, q)
	return nil
}
func (f *fakeConn) Ping(context.Context) error { return f.pingErr }
func (f *fakeConn) Close() error               { f.closed = true; return nil }

type fakeBatch struct {
	driver.Batch
	query     string
	rows      [][]any
	appendErr error
	sent      bool
	aborted   bool
}

func (b *fakeBatch) Append(v ...any) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.rows = append(b.rows, v)
	return nil
}
func (b *fakeBatch) Send() error  { b.sent = true; return nil }
func (b *fakeBatch) Abort() error { b.aborted = true; return nil }

func TestInsert_BatchesRows(t *testing.T) {
	fc := &fakeConn{batch: &fakeBatch{}}
	c := &CH{conn: fc}

	err := c.Insert(context.Background(), "find_run_summaries", [][]any{{"run", 1}, {"run", 2}})
	if err != nil {
		t.Fatal(err)
	}
	if fc.batch.query != "INSERT INTO find_run_summaries" || len(fc.batch.rows) != 2 || !fc.batch.sent {
		t.Fatalf("batch = %+v", fc.batch)
	}
}

func TestInsert_EmptyIsNoop(t *testing.T) {
	c := &CH{conn: &fakeConn{}}
	if err := c.Insert(context.Background(), "t", nil); err != nil {
		t.Fatal(err)
	}
}

func TestInsert_AppendErrorAborts(t *testing.T) {
	fc := &fakeConn{batch: &fakeBatch{appendErr: errors.New("bad column")}}
	c := &CH{conn: fc}
	err := c.Insert(context.Background(), "t", [][]any{{1}})
	if err == nil || !strings.Contains(err.Error(), "bad column") {
		t.Fatalf("err = %v", err)
	}
	if !fc.batch.aborted || fc.batch.sent {
		t.Fatalf("expected abort without send: %+v", fc.batch)
	}
}

func TestOpen_Errors(t *testing.T) {
	testkit.Serial(t)

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected empty url error")
	}
	if _, err := Open(context.Background(), Config{URL: "clickhouse://host:9000?dial_timeout=nope"}); err == nil {
		t.Fatalf("expected parse error")
	}

	fc := &fakeConn{pingErr: errors.New("refused")}
	testkit.Swap(t, &openConn, func(*clickhouse.Options) (driver.Conn, error) { return fc, nil })
	if _, err := Open(context.Background(), Config{URL: "clickhouse://localhost:9000/default"}); err == nil {
		t.Fatalf("expected ping error")
	}
	if !fc.closed {
		t.Fatalf("conn not closed after failed ping")
	}
}

func TestOpen_SetsClientInfo(t *testing.T) {
	testkit.Serial(t)

	var got *clickhouse.Options
	testkit.Swap(t, &openConn, func(o *clickhouse.Options) (driver.Conn, error) {
		got = o
		return &fakeConn{}, nil
	})
	c, err := Open(context.Background(), Config{URL: "clickhouse://localhost:9000/default", Role: "find"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Exec(context.Background(), "CREATE TABLE x (a UInt8) ENGINE = Memory"); err != nil {
		t.Fatal(err)
	}
	if len(got.ClientInfo.Products) == 0 || got.ClientInfo.Products[0].Name != "hloc" {
		t.Fatalf("client info = %+v", got.ClientInfo)
	}
	if got.ClientInfo.Products[1].Version != "find" {
		t.Fatalf("role = %+v", got.ClientInfo.Products[1])
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestClose_NilSafe(t *testing.T) {
	var c *CH
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
