package domain

import (
	"net/netip"
	"testing"
	"time"

	perr "github.com/alexmarder/hloc/internal/platform/errors"

	"github.com/stretchr/testify/assert"
)

func TestSubLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"berlin", "server"}, Label{Name: "Berlin-Server"}.SubLabels())
	assert.Equal(t, []string{"ae1", "", "fra"}, Label{Name: "ae1--fra"}.SubLabels())
	assert.Equal(t, []string{"unrelated"}, Label{Name: "unrelated"}.SubLabels())
}

func TestSearchedSince(t *testing.T) {
	t.Parallel()

	now := time.Now()
	before := now.Add(-time.Hour)
	assert.False(t, Label{}.SearchedSince(before))
	assert.True(t, Label{LastSearched: &now}.SearchedSince(before))
	assert.True(t, Label{LastSearched: &before}.SearchedSince(before))
	assert.False(t, Label{LastSearched: &before}.SearchedSince(now))
}

func TestSplitLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"net", "example", "fra1"}, SplitLabels("FRA1.Example.net."))
	assert.Equal(t, []string{"com", "a"}, SplitLabels("a..com"))
	assert.Empty(t, SplitLabels(" "))
}

func TestShardInput_Validate(t *testing.T) {
	t.Parallel()

	ok := ShardInput{Worker: 1, Workers: 2, Limit: 10, Classes: []Classification{Valid}}
	assert.NoError(t, ok.Validate())

	cases := map[string]ShardInput{
		"workers":    {Workers: 0, Limit: 1, Classes: []Classification{Valid}},
		"worker":     {Worker: 2, Workers: 2, Limit: 1, Classes: []Classification{Valid}},
		"limit":      {Workers: 1, Classes: []Classification{Valid}},
		"classes":    {Workers: 1, Limit: 1},
		"ip_version": {Workers: 1, Limit: 1, Classes: []Classification{Valid}, IPVersion: "ipv5"},
	}
	for field, in := range cases {
		err := in.Validate()
		assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), field)
		e, _ := perr.As(err)
		assert.Equal(t, field, e.Field())
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	v4 := netip.MustParseAddr("192.0.2.17")
	v6 := netip.MustParseAddr("2001:db8::1")

	tests := []struct {
		ip   netip.Addr
		name string
		want Classification
	}{
		{v4, "ae1.fra1.example.net", Valid},
		{v4, "core_1.example.net.", Valid},
		{v4, "bad!name.example.net", InvalidCharacters},
		{v4, "", InvalidCharacters},
		{v4, "host-192-0-2-17.example.net", IPEncoded},
		{v4, "17.2.0.192.in-addr.example.com", IPEncoded},
		{v4, "dsl192-000-002-017.example.com", IPEncoded},
		{v4, "c0000211.example.com", IPEncoded},
		{v4, "host-192-0-3-17.example.net", Valid},
		{v4, "router.example.notarealtld", BadTLD},
		{v6, "host-192-0-2-17.example.net", Valid},
		{v6, "ae1.example.net", Valid},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.ip, tc.name), tc.name)
	}
}

func TestValidateIPVersion(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"", "ipv4", "ipv6"} {
		assert.NoError(t, ValidateIPVersion(v))
	}
	assert.Error(t, ValidateIPVersion("IPv4"))
}
