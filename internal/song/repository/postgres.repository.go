package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"songcatalog/internal/song/model"
	"songcatalog/pkg/logger"

	"github.com/google/uuid"
)

// Songs are kept whole in a JSONB column; oid plays the role of Mongo's _id.
const (
	schemaQuery = `CREATE TABLE IF NOT EXISTS songs (oid TEXT PRIMARY KEY, doc JSONB NOT NULL);
CREATE INDEX IF NOT EXISTS songs_app_id_idx ON songs ((doc->'id'))`
	countQuery    = `SELECT count(*) FROM songs`
	findAllQuery  = `SELECT oid, doc FROM songs ORDER BY oid`
	findOneQuery  = `SELECT oid, doc FROM songs WHERE doc->'id' = $1::jsonb LIMIT 1`
	existsQuery   = `SELECT EXISTS(SELECT 1 FROM songs WHERE doc->'id' = $1::jsonb)`
	insertQuery   = `INSERT INTO songs (oid, doc) VALUES ($1, $2::jsonb)`
	truncateQuery = `DELETE FROM songs`
	deleteQuery   = `DELETE FROM songs WHERE oid = (SELECT oid FROM songs WHERE doc->'id' = $1::jsonb LIMIT 1)`
	updateQuery   = `
		WITH target AS (
			SELECT oid, doc FROM songs WHERE doc->'id' = $1::jsonb LIMIT 1
		), changed AS (
			UPDATE songs s SET doc = s.doc || $2::jsonb
			FROM target t
			WHERE s.oid = t.oid AND (t.doc || $2::jsonb) IS DISTINCT FROM t.doc
			RETURNING s.oid
		)
		SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM changed)`
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaQuery); err != nil {
		logger.Sugar.Errorf("Failed to create songs table: %v", err)
		return err
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		logger.Sugar.Errorf("Failed to count songs: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]model.Song, error) {
	rows, err := r.DB.QueryContext(ctx, findAllQuery)
	if err != nil {
		logger.Sugar.Errorf("Failed to retrieve songs: %v", err)
		return nil, err
	}
	defer rows.Close()

	songs := []model.Song{}
	for rows.Next() {
		var oid string
		var doc []byte
		if err := rows.Scan(&oid, &doc); err != nil {
			return nil, err
		}
		song, err := decodeDoc(oid, doc)
		if err != nil {
			logger.Sugar.Errorf("Failed to decode song %s: %v", oid, err)
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (model.Song, error) {
	var oid string
	var doc []byte
	err := r.DB.QueryRowContext(ctx, findOneQuery, jsonID(id)).Scan(&oid, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to find song %d: %v", id, err)
		return nil, err
	}
	return decodeDoc(oid, doc)
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, existsQuery, jsonID(id)).Scan(&exists); err != nil {
		logger.Sugar.Errorf("Failed to look up song %d: %v", id, err)
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, song model.Song) (string, error) {
	oid, doc, err := encodeDoc(song)
	if err != nil {
		return "", err
	}
	if _, err := r.DB.ExecContext(ctx, insertQuery, oid, doc); err != nil {
		logger.Sugar.Errorf("Failed to insert song: %v", err)
		return "", err
	}
	return oid, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, fields model.Song) (model.UpdateResult, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return model.UpdateResult{}, fmt.Errorf("encode update: %w", err)
	}

	var res model.UpdateResult
	err = r.DB.QueryRowContext(ctx, updateQuery, jsonID(id), string(patch)).Scan(&res.Matched, &res.Modified)
	if err != nil {
		logger.Sugar.Errorf("Failed to update song %d: %v", id, err)
		return model.UpdateResult{}, err
	}
	return res, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := r.DB.ExecContext(ctx, deleteQuery, jsonID(id))
	if err != nil {
		logger.Sugar.Errorf("Failed to delete song %d: %v", id, err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) Replace(ctx context.Context, songs []model.Song) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, truncateQuery); err != nil {
		logger.Sugar.Errorf("Failed to clear songs table: %v", err)
		return fmt.Errorf("clear songs: %w", err)
	}
	for _, s := range songs {
		oid, doc, err := encodeDoc(s)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertQuery, oid, doc); err != nil {
			logger.Sugar.Errorf("Failed to insert seed song: %v", err)
			return fmt.Errorf("insert seed song: %w", err)
		}
	}
	return tx.Commit()
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// encodeDoc keeps a client supplied string _id, otherwise mints a UUID.
func encodeDoc(song model.Song) (string, string, error) {
	doc := song.Clone()
	oid, _ := doc[model.StoreIDField].(string)
	delete(doc, model.StoreIDField)
	if oid == "" {
		oid = uuid.NewString()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("encode song: %w", err)
	}
	return oid, string(data), nil
}

func decodeDoc(oid string, data []byte) (model.Song, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	song := model.Song(model.Normalize(raw).(map[string]any))
	song[model.StoreIDField] = oid
	return song, nil
}
