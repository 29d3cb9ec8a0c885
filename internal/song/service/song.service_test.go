package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songcatalog/internal/song/model"
	"songcatalog/internal/song/repository"
	"songcatalog/pkg/events"
)

func newService(t *testing.T, seed ...model.Song) (*SongService, *events.Recorder) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Replace(context.Background(), seed))
	rec := &events.Recorder{}
	return NewSongService(repo, rec), rec
}

func TestCreateThenGetReturnsSuperset(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	payload := model.Song{"id": int64(999), "title": "X", "artist": "Y"}
	insertedID, err := svc.Create(ctx, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, insertedID)

	got, err := svc.Get(ctx, 999)
	require.NoError(t, err)
	for k, v := range payload {
		assert.Equal(t, v, got[k])
	}
	assert.Equal(t, insertedID, got[model.StoreIDField])
	assert.Equal(t, []string{events.SongCreated}, rec.Types())
}

func TestCreateDuplicateConflicts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, model.Song{"id": int64(5), "title": "first"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, model.Song{"id": int64(5), "title": "second"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "first", all[0]["title"])
}

func TestCreateRequiresIntegerID(t *testing.T) {
	svc, rec := newService(t)

	_, err := svc.Create(context.Background(), model.Song{"title": "no id"})
	assert.ErrorIs(t, err, model.ErrMissingID)

	_, err = svc.Create(context.Background(), model.Song{"id": "abc"})
	assert.ErrorIs(t, err, model.ErrMissingID)
	assert.Empty(t, rec.Events)
}

func TestUpdateMergesFields(t *testing.T) {
	svc, rec := newService(t, model.Song{"id": int64(1), "title": "Old", "artist": "Keep"})
	ctx := context.Background()

	res, err := svc.Update(ctx, 1, model.Song{"title": "New"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Modified)

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "New", got["title"])
	assert.Equal(t, "Keep", got["artist"])
	assert.Equal(t, []string{events.SongUpdated}, rec.Types())
}

func TestUpdateUnchanged(t *testing.T) {
	svc, rec := newService(t, model.Song{"id": int64(1), "title": "Same"})

	res, err := svc.Update(context.Background(), 1, model.Song{"title": "Same"})
	require.NoError(t, err)
	assert.Equal(t, model.UpdateResult{Matched: 1, Modified: 0}, res)
	assert.Empty(t, rec.Events, "no-op updates are not announced")
}

func TestUpdateErrors(t *testing.T) {
	svc, _ := newService(t, model.Song{"id": int64(1)})
	ctx := context.Background()

	_, err := svc.Update(ctx, 404, model.Song{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, 1, model.Song{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = svc.Update(ctx, 1, model.Song{"_id": "other"})
	assert.ErrorIs(t, err, ErrStoreIDUpdate)
}

func TestDelete(t *testing.T) {
	svc, rec := newService(t, model.Song{"id": int64(1)})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1))
	_, err := svc.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrNotFound)
	assert.Equal(t, []string{events.SongDeleted}, rec.Types())
}

func TestListCountAfterCreatesAndDeletes(t *testing.T) {
	seed := []model.Song{{"id": int64(1)}, {"id": int64(2)}, {"id": int64(3)}}
	svc, _ := newService(t, seed...)
	ctx := context.Background()

	for id := int64(100); id < 105; id++ {
		_, err := svc.Create(ctx, model.Song{"id": id})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Delete(ctx, 100))
	require.NoError(t, svc.Delete(ctx, 2))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(seed)+5-2)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(all)), n)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	songs := []model.Song{{"id": int64(1)}, {"id": int64(2)}}

	require.NoError(t, svc.Seed(ctx, songs))
	_, _ = svc.Create(ctx, model.Song{"id": int64(3)})
	require.NoError(t, svc.Seed(ctx, songs))

	n, _ := svc.Count(ctx)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, rec.Types(), events.CatalogSeeded)
}

type failingRepo struct {
	repository.Repository
	err error
}

func (f failingRepo) Exists(context.Context, int64) (bool, error) { return false, f.err }
func (f failingRepo) Replace(context.Context, []model.Song) error { return f.err }

func TestStoreFailuresPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewSongService(failingRepo{err: boom}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, model.Song{"id": int64(1)})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Update(ctx, 1, model.Song{"a": 1})
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, svc.Seed(ctx, nil), boom)
}
