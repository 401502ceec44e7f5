package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 10, 12, 0, 0, 123, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: ts, ID: "sub-123"})

	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(ts))
	assert.Equal(t, "sub-123", decoded.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	c, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = ParseCursor("!!!")
	assert.Error(t, err)

	_, err = ParseCursor(EncodeCursor(Cursor{CreatedAt: time.Now()}))
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	rows := []int{1, 2, 3}
	page := Trim(rows, 2, func(v int) Cursor { return Cursor{CreatedAt: time.Unix(int64(v), 0), ID: "x"} })
	assert.Equal(t, []int{1, 2}, page.Items)
	require.NotEmpty(t, page.NextCursor)

	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.CreatedAt.Unix())

	last := Trim([]int{9}, 2, func(v int) Cursor { return Cursor{} })
	assert.Empty(t, last.NextCursor)

	empty := Trim[int](nil, 2, func(v int) Cursor { return Cursor{} })
	assert.NotNil(t, empty.Items)
}
