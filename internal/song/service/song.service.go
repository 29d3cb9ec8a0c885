package service

import (
	"context"
	"errors"
	"fmt"

	"songcatalog/internal/song/model"
	"songcatalog/internal/song/repository"
	"songcatalog/pkg/events"
	"songcatalog/pkg/logger"
)

var (
	ErrNotFound      = repository.ErrNotFound
	ErrAlreadyExists = errors.New("song already present")
	ErrEmptyUpdate   = errors.New("update body has no fields")
	ErrStoreIDUpdate = errors.New("the _id field is assigned by the store and cannot be updated")
)

type SongService struct {
	Repo   repository.Repository
	Events events.Publisher
}

func NewSongService(repo repository.Repository, publisher events.Publisher) *SongService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &SongService{Repo: repo, Events: publisher}
}

// Count is the live number of stored songs.
func (s *SongService) Count(ctx context.Context) (int64, error) {
	return s.Repo.Count(ctx)
}

func (s *SongService) List(ctx context.Context) ([]model.Song, error) {
	return s.Repo.FindAll(ctx)
}

func (s *SongService) Get(ctx context.Context, id int64) (model.Song, error) {
	return s.Repo.FindByID(ctx, id)
}

// Create inserts a song unless one with the same id exists. The check and the
// insert are separate store calls, so concurrent identical requests can race.
func (s *SongService) Create(ctx context.Context, song model.Song) (string, error) {
	id, ok := song.ID()
	if !ok {
		return "", model.ErrMissingID
	}

	exists, err := s.Repo.Exists(ctx, id)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("song with id %d: %w", id, ErrAlreadyExists)
	}

	insertedID, err := s.Repo.Insert(ctx, song)
	if err != nil {
		return "", err
	}

	created := song.Clone()
	created[model.StoreIDField] = insertedID
	s.Events.Publish(events.New(events.SongCreated, id, created))
	logger.Sugar.Infof("Song %d created as %s", id, insertedID)
	return insertedID, nil
}

// Update merges fields into the stored song. A result with Modified == 0 means
// the song exists but already held those values.
func (s *SongService) Update(ctx context.Context, id int64, fields model.Song) (model.UpdateResult, error) {
	if len(fields) == 0 {
		return model.UpdateResult{}, ErrEmptyUpdate
	}
	if _, ok := fields[model.StoreIDField]; ok {
		return model.UpdateResult{}, ErrStoreIDUpdate
	}

	exists, err := s.Repo.Exists(ctx, id)
	if err != nil {
		return model.UpdateResult{}, err
	}
	if !exists {
		return model.UpdateResult{}, ErrNotFound
	}

	res, err := s.Repo.Update(ctx, id, fields)
	if err != nil {
		return model.UpdateResult{}, err
	}
	if res.Matched == 0 {
		// Deleted between the existence check and the update.
		return res, ErrNotFound
	}
	if res.Modified > 0 {
		s.Events.Publish(events.New(events.SongUpdated, id, fields))
	}
	return res, nil
}

func (s *SongService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}

	s.Events.Publish(events.New(events.SongDeleted, id, nil))
	logger.Sugar.Infof("Song %d deleted", id)
	return nil
}

// Seed replaces the whole catalog. Running it twice with the same songs leaves
// the same catalog behind.
func (s *SongService) Seed(ctx context.Context, songs []model.Song) error {
	if err := s.Repo.Replace(ctx, songs); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	s.Events.Publish(events.New(events.CatalogSeeded, 0, map[string]int{"count": len(songs)}))
	logger.Sugar.Infof("Catalog seeded with %d songs", len(songs))
	return nil
}
