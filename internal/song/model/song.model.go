package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

const (
	// IDField is the application-level key supplied by clients.
	IDField = "id"
	// StoreIDField holds the store-assigned identifier, always a string on the wire.
	StoreIDField = "_id"
)

var ErrMissingID = errors.New("song payload has no integer id field")

// Song is an open document. Only IDField has meaning to the service.
type Song map[string]any

// ID returns the application id, accepting any integral numeric representation.
func (s Song) ID() (int64, bool) {
	return AsInt64(s[IDField])
}

// Clone returns a shallow copy so callers can add StoreIDField without touching input.
func (s Song) Clone() Song {
	out := make(Song, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type HealthResponse struct {
	Status string `json:"status"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ListResponse struct {
	Songs []Song `json:"songs"`
}

type CreateResponse struct {
	InsertedID string `json:"inserted id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ConflictResponse keeps the capitalised key existing clients read.
type ConflictResponse struct {
	Message string `json:"Message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// UpdateResult mirrors the matched/modified counts a document store reports.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// DecodeSong reads a single JSON object. Integral numbers come back as int64 so
// that id filters compare equal to stored integers.
func DecodeSong(r io.Reader) (Song, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if raw == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return Song(Normalize(raw).(map[string]any)), nil
}

// DecodeSongs parses a JSON array of song objects.
func DecodeSongs(data []byte) ([]Song, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid song list: %w", err)
	}
	songs := make([]Song, 0, len(raw))
	for _, m := range raw {
		songs = append(songs, Song(Normalize(m).(map[string]any)))
	}
	return songs, nil
}

// Normalize walks decoded JSON and replaces json.Number with int64 or float64.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, val := range t {
			t[k] = Normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = Normalize(val)
		}
		return t
	default:
		return v
	}
}

// ParseID parses a path id. Only unsigned base-10 digits are accepted.
func ParseID(s string) (int64, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
