package repository

import (
	"context"
	"errors"

	"songcatalog/internal/song/model"
)

var ErrNotFound = errors.New("song not found")

// ErrDuplicateStoreID is returned when a song reuses a store identifier.
var ErrDuplicateStoreID = errors.New("duplicate _id")

// Repository is the document store capability the service needs. Every method is
// a single store round trip; implementations must be safe for concurrent use.
type Repository interface {
	Count(ctx context.Context) (int64, error)
	FindAll(ctx context.Context) ([]model.Song, error)
	// FindByID returns ErrNotFound when no song carries the given id.
	FindByID(ctx context.Context, id int64) (model.Song, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// Insert stores the song and returns the store-assigned identifier.
	Insert(ctx context.Context, song model.Song) (string, error)
	// Update merges fields into the first song with the given id.
	Update(ctx context.Context, id int64, fields model.Song) (model.UpdateResult, error)
	Delete(ctx context.Context, id int64) (int64, error)
	// Replace discards the whole collection and inserts songs.
	Replace(ctx context.Context, songs []model.Song) error
}
