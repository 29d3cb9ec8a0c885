package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSongNormalizesNumbers(t *testing.T) {
	song, err := DecodeSong(strings.NewReader(`{"id":999,"title":"X","rating":4.5,"tags":[1,"a"],"meta":{"year":1999}}`))
	require.NoError(t, err)

	assert.Equal(t, int64(999), song["id"])
	assert.Equal(t, 4.5, song["rating"])
	assert.Equal(t, []any{int64(1), "a"}, song["tags"])
	assert.Equal(t, map[string]any{"year": int64(1999)}, song["meta"])

	id, ok := song.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(999), id)
}

func TestDecodeSongRejectsBadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     "",
		"malformed": `{"id":`,
		"array":     `[1,2]`,
		"null":      `null`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSong(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestSongID(t *testing.T) {
	_, ok := Song{"title": "x"}.ID()
	assert.False(t, ok)
	_, ok = Song{"id": "12"}.ID()
	assert.False(t, ok, "string ids are not application ids")
	_, ok = Song{"id": 1.5}.ID()
	assert.False(t, ok)
	_, ok = Song{"id": 1e20}.ID()
	assert.False(t, ok, "out of range floats are not ids")
	_, ok = Song{"id": -1e20}.ID()
	assert.False(t, ok)
	_, ok = Song{"id": math.Inf(1)}.ID()
	assert.False(t, ok)
	id, ok := Song{"id": float64(7)}.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestDecodeSongRejectsOutOfRangeID(t *testing.T) {
	song, err := DecodeSong(strings.NewReader(`{"id":1e20,"title":"x"}`))
	require.NoError(t, err)
	_, ok := song.ID()
	assert.False(t, ok)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "-1", "+5", "1.5", "abc", "99999999999999999999"} {
		_, ok := ParseID(s)
		assert.False(t, ok, "%q", s)
	}
}

func TestDecodeSongs(t *testing.T) {
	songs, err := DecodeSongs([]byte(`[{"id":1},{"id":2,"title":"b"}]`))
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, int64(2), songs[1]["id"])

	_, err = DecodeSongs([]byte(`{"id":1}`))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	s := Song{"id": int64(1)}
	c := s.Clone()
	c[StoreIDField] = "abc"
	_, ok := s[StoreIDField]
	assert.False(t, ok)
}
