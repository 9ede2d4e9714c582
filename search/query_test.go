package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	req := require.New(t)

	query := ParseQuery(`/find "invoice" march --peer 42 --limit 5`)

	req.Equal("invoice march", query.Terms)
	req.Equal("42", query.PeerID)
	req.Equal(5, query.Limit)
}

func TestParseQuery_Defaults(t *testing.T) {
	req := require.New(t)

	query := ParseQuery("hello --limit many")

	req.Equal("hello", query.Terms)
	req.Empty(query.PeerID)
	req.Equal(DefaultLimit, query.Limit)
}

func TestClampLimit(t *testing.T) {
	req := require.New(t)
	req.Equal(DefaultLimit, ClampLimit(0))
	req.Equal(DefaultLimit, ClampLimit(-3))
	req.Equal(7, ClampLimit(7))
	req.Equal(MaxLimit, ClampLimit(MaxLimit+1))
}
