package repository

import (
	"context"
	"errors"
	"fmt"

	"songcatalog/internal/song/model"
	"songcatalog/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	Collection *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{Collection: coll}
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		logger.Sugar.Errorf("Failed to count songs: %v", err)
	}
	return n, err
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]model.Song, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		logger.Sugar.Errorf("Failed to retrieve songs: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	songs := []model.Song{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			logger.Sugar.Errorf("Failed to decode song document: %v", err)
			return nil, err
		}
		songs = append(songs, fromBSON(doc))
	}
	if err := cursor.Err(); err != nil {
		logger.Sugar.Errorf("Error while iterating songs cursor: %v", err)
		return nil, err
	}
	return songs, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id int64) (model.Song, error) {
	var doc bson.M
	err := r.Collection.FindOne(ctx, bson.M{model.IDField: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to find song %d: %v", id, err)
		return nil, err
	}
	return fromBSON(doc), nil
}

func (r *MongoRepository) Exists(ctx context.Context, id int64) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.Collection.FindOne(ctx, bson.M{model.IDField: id}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to look up song %d: %v", id, err)
		return false, err
	}
	return true, nil
}

func (r *MongoRepository) Insert(ctx context.Context, song model.Song) (string, error) {
	res, err := r.Collection.InsertOne(ctx, bson.M(song))
	if err != nil {
		logger.Sugar.Errorf("Failed to insert song: %v", err)
		return "", err
	}
	return idString(res.InsertedID), nil
}

func (r *MongoRepository) Update(ctx context.Context, id int64, fields model.Song) (model.UpdateResult, error) {
	res, err := r.Collection.UpdateOne(ctx, bson.M{model.IDField: id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		logger.Sugar.Errorf("Failed to update song %d: %v", id, err)
		return model.UpdateResult{}, err
	}
	return model.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.Collection.DeleteOne(ctx, bson.M{model.IDField: id})
	if err != nil {
		logger.Sugar.Errorf("Failed to delete song %d: %v", id, err)
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) Replace(ctx context.Context, songs []model.Song) error {
	if err := r.Collection.Drop(ctx); err != nil {
		logger.Sugar.Errorf("Failed to drop songs collection: %v", err)
		return fmt.Errorf("drop collection: %w", err)
	}
	if len(songs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(songs))
	for _, s := range songs {
		docs = append(docs, bson.M(s))
	}
	if _, err := r.Collection.InsertMany(ctx, docs); err != nil {
		logger.Sugar.Errorf("Failed to insert seed songs: %v", err)
		return fmt.Errorf("insert seed songs: %w", err)
	}
	return nil
}

// fromBSON surfaces the ObjectID as its hex string.
func fromBSON(doc bson.M) model.Song {
	song := model.Song(doc)
	if raw, ok := doc["_id"]; ok {
		song[model.StoreIDField] = idString(raw)
	}
	return song
}

func idString(v interface{}) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(v)
}
