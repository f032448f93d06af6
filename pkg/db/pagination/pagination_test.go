package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-03-01T10:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	token, err := EncodeCursor(Cursor{ID: "42"})
	require.NoError(t, err)
	_, err = DecodeCursor(token)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestBuildCursorPageInfo(t *testing.T) {
	items := []*int{new(int), new(int), new(int)}
	*items[1] = 7

	info := BuildCursorPageInfo(items, 2, func(v *int) string {
		if *v == 7 {
			return "seven"
		}
		return "other"
	})
	assert.True(t, info.HasMore)
	assert.Equal(t, "seven", info.NextPageToken)

	info = BuildCursorPageInfo(items, 3, func(*int) string { return "x" })
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, int32(DefaultPageSize), ClampPageSize(0))
	assert.Equal(t, int32(MaxPageSize), ClampPageSize(1000))
	assert.Equal(t, int32(5), ClampPageSize(5))
}
