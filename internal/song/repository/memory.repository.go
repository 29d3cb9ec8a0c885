package repository

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"songcatalog/internal/song/model"

	"github.com/google/uuid"
)

// MemoryRepository keeps songs in process. It backs the "memory" store driver
// and the service tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	songs map[string]model.Song
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{songs: make(map[string]model.Song)}
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.order)), nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]model.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	songs := make([]model.Song, 0, len(r.order))
	for _, oid := range r.order {
		songs = append(songs, r.songs[oid].Clone())
	}
	return songs, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id int64) (model.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	oid, ok := r.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r.songs[oid].Clone(), nil
}

func (r *MemoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.lookup(id)
	return ok, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, song model.Song) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(r.songs, &r.order, song)
}

func (r *MemoryRepository) Update(ctx context.Context, id int64, fields model.Song) (model.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, ok := r.lookup(id)
	if !ok {
		return model.UpdateResult{}, nil
	}

	stored := r.songs[oid]
	changed := false
	for k, v := range fields {
		if cur, exists := stored[k]; !exists || !reflect.DeepEqual(cur, v) {
			stored[k] = v
			changed = true
		}
	}

	res := model.UpdateResult{Matched: 1}
	if changed {
		res.Modified = 1
	}
	return res, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, ok := r.lookup(id)
	if !ok {
		return 0, nil
	}
	delete(r.songs, oid)
	for i, o := range r.order {
		if o == oid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (r *MemoryRepository) Replace(ctx context.Context, songs []model.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]string, 0, len(songs))
	docs := make(map[string]model.Song, len(songs))
	for _, s := range songs {
		if _, err := r.insert(docs, &order, s); err != nil {
			return err
		}
	}
	r.order, r.songs = order, docs
	return nil
}

// lookup must be called with the lock held. First match in insertion order wins.
func (r *MemoryRepository) lookup(id int64) (string, bool) {
	for _, oid := range r.order {
		if got, ok := r.songs[oid].ID(); ok && got == id {
			return oid, true
		}
	}
	return "", false
}

func (r *MemoryRepository) insert(docs map[string]model.Song, order *[]string, song model.Song) (string, error) {
	doc := song.Clone()
	oid, _ := doc[model.StoreIDField].(string)
	if oid == "" {
		oid = uuid.NewString()
	}
	if _, taken := docs[oid]; taken {
		return "", fmt.Errorf("%w: %s", ErrDuplicateStoreID, oid)
	}
	doc[model.StoreIDField] = oid

	docs[oid] = doc
	*order = append(*order, oid)
	return oid, nil
}
