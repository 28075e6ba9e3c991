package repo

import (
	"context"
	"testing"
	"time"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/testkit/fakedb"
	"github.com/alexmarder/hloc/internal/services/domains/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListShard_GroupsLabelsByDomain(t *testing.T) {
	t.Parallel()

	searched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := fakedb.New(fakedb.Result{Rows: [][]any{
		{int64(4), "fra1.example.net", "10.0.0.4", nil, "valid", int64(10), "net", int16(0), nil, int64(0)},
		{int64(4), "fra1.example.net", "10.0.0.4", nil, "valid", int64(11), "example", int16(1), nil, int64(0)},
		{int64(4), "fra1.example.net", "10.0.0.4", nil, "valid", int64(12), "fra1", int16(2), searched, int64(2)},
		{int64(8), "lonely.", nil, "::1", "ip_encoded", nil, nil, nil, nil, int64(0)},
	}})
	st := NewPG().Bind(db)

	got, err := st.ListShard(context.Background(), domain.ShardInput{
		Worker: 0, Workers: 4, AfterID: 0, Limit: 2,
		Classes: []domain.Classification{domain.Valid, domain.IPEncoded}, IPVersion: domain.IPv4,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	d := got[0]
	assert.Equal(t, "10.0.0.4", d.IPv4)
	assert.Equal(t, domain.Valid, d.Classification)
	require.Len(t, d.Labels, 3)
	assert.Equal(t, "net", d.Labels[0].Name)
	assert.Equal(t, 2, d.Labels[2].Position)
	assert.Equal(t, searched, *d.Labels[2].LastSearched)
	assert.Equal(t, 2, d.Labels[2].HintCount)

	assert.Empty(t, got[1].Labels)
	assert.Equal(t, "::1", got[1].IPv6)

	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SQL, "d.ipv4 IS NOT NULL")
	assert.Contains(t, calls[0].SQL, "d.id % $2 = $3")
	assert.Equal(t, []any{[]string{"valid", "ip_encoded"}, int64(4), int64(0), int64(0), 2}, calls[0].Args)
}

func TestListShard_ErrorIsWrapped(t *testing.T) {
	t.Parallel()

	db := fakedb.New(fakedb.Result{Err: context.DeadlineExceeded})
	_, err := NewPG().Bind(db).ListShard(context.Background(), domain.ShardInput{Workers: 1, Limit: 1, Classes: []domain.Classification{domain.Valid}})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeCanceled))
}

func TestCountPopulation(t *testing.T) {
	t.Parallel()

	db := fakedb.New(fakedb.Result{Rows: [][]any{{int64(42)}}})
	n, err := NewPG().Bind(db).CountPopulation(context.Background(), []domain.Classification{domain.Valid}, domain.IPv6)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Contains(t, db.Calls()[0].SQL, "d.ipv6 IS NOT NULL")
}

func TestTouchSearched(t *testing.T) {
	t.Parallel()

	at := time.Now()
	db := fakedb.New(fakedb.Result{Affected: 1}, fakedb.Result{Affected: 0})
	st := NewPG().Bind(db)

	require.NoError(t, st.TouchSearched(context.Background(), 9, at))
	assert.ErrorIs(t, st.TouchSearched(context.Background(), 10, at), perr.ErrNotFound)

	c := db.Calls()[0]
	assert.Contains(t, c.SQL, "GREATEST(COALESCE(last_searched, $2), $2)")
	assert.Equal(t, []any{int64(9), at}, c.Args)
}

func TestUpserts(t *testing.T) {
	t.Parallel()

	db := fakedb.New(
		fakedb.Result{Rows: [][]any{{int64(1), "a.example.com"}}},
		fakedb.Result{Rows: [][]any{{int64(5), "com"}, {int64(6), "example"}}},
		fakedb.Result{Affected: 2},
	)
	st := NewPG().Bind(db)

	ids, err := st.UpsertDomains(context.Background(), []domain.Domain{{Name: "a.example.com", IPv4: "10.0.0.1", Classification: domain.Valid}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a.example.com": 1}, ids)

	lids, err := st.UpsertLabels(context.Background(), []string{"com", "example"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), lids["example"])

	require.NoError(t, st.LinkLabels(context.Background(), []Link{{1, 5, 0}, {1, 6, 1}}))

	calls := db.Calls()
	assert.Contains(t, calls[0].SQL, "($1,$2::inet,$3::inet,$4)")
	assert.Nil(t, calls[0].Args[2].(*string))
	assert.Contains(t, calls[1].SQL, "ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name")
	assert.Equal(t, []any{int64(1), int64(5), int16(0), int64(1), int64(6), int16(1)}, calls[2].Args)
}

func TestCastPlaceholders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "($1,$2::inet,$3::inet,$4),($5,$6::inet,$7::inet,$8)", castPlaceholders(2))
}
