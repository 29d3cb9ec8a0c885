package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataset(t *testing.T) {
	songs, err := Default()
	require.NoError(t, err)
	require.Len(t, songs, 20)

	seen := map[int64]bool{}
	for _, s := range songs {
		id, ok := s.ID()
		require.True(t, ok, "every seed song needs an integer id")
		assert.False(t, seen[id], "duplicate seed id %d", id)
		seen[id] = true
	}
	assert.False(t, seen[999], "id 999 is reserved for smoke tests")
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	songs, err := Load("")
	require.NoError(t, err)
	assert.Len(t, songs, 20)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"A"},{"id":2}]`), 0644))

	songs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, int64(1), songs[0]["id"])
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.yaml")
	content := `- id: 10
  title: Ten
  credits:
    - role: bass
      count: 2
- id: 11
  title: Eleven
  bpm: 96.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	songs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, songs, 2)

	id, ok := songs[0].ID()
	assert.True(t, ok)
	assert.Equal(t, int64(10), id)
	assert.Equal(t, []any{map[string]any{"role": "bass", "count": int64(2)}}, songs[0]["credits"])
	assert.Equal(t, 96.5, songs[1]["bpm"])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("id: [1"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
