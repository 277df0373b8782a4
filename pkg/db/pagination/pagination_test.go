package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct{ id int64 }

func TestTokenRoundTrip(t *testing.T) {
	after, err := ParseToken(Token(1839201))
	require.NoError(t, err)
	assert.Equal(t, int64(1839201), after)

	for _, bad := range []string{"%%%", "bm90LWpzb24", Token(0)} {
		_, err := ParseToken(bad)
		assert.ErrorIs(t, err, ErrInvalidPageToken, bad)
	}
}

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, 20, Pagination{PageSize: 20}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 5000}.Limit())
}

func TestAfter(t *testing.T) {
	after, err := Pagination{}.After()
	require.NoError(t, err)
	assert.Zero(t, after)

	after, err = Pagination{PageToken: Token(42)}.After()
	require.NoError(t, err)
	assert.Equal(t, int64(42), after)
}

func TestSplit(t *testing.T) {
	rows := []*account{{1}, {2}, {3}}
	idOf := func(a *account) int64 { return a.id }

	page, info := Split(rows, 2, idOf)
	assert.Len(t, page, 2)
	assert.True(t, info.HasMore)
	after, err := ParseToken(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after)

	page, info = Split(rows, 3, idOf)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
