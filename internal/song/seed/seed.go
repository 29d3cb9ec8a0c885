// Package seed loads the dataset the catalog is reset to at startup.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"songcatalog/internal/song/model"

	"gopkg.in/yaml.v3"
)

//go:embed data/songs.json
var defaultSongs []byte

// Default returns the bundled dataset.
func Default() ([]model.Song, error) {
	return model.DecodeSongs(defaultSongs)
}

// Load reads a JSON array, or a YAML sequence when the file ends in .yaml/.yml.
// An empty path selects the bundled dataset.
func Load(path string) ([]model.Song, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return model.DecodeSongs(data)
	}
}

func decodeYAML(data []byte) ([]model.Song, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid song list: %w", err)
	}

	songs := make([]model.Song, 0, len(raw))
	for _, m := range raw {
		songs = append(songs, model.Song(widenInts(m).(map[string]any)))
	}
	return songs, nil
}

// widenInts turns yaml's int into int64 to match JSON decoded songs.
func widenInts(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case map[string]any:
		for k, val := range t {
			t[k] = widenInts(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = widenInts(val)
		}
		return t
	default:
		return v
	}
}
