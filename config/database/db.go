package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"songcatalog/config"
	"songcatalog/pkg/logger"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
	pingTimeout     = 10 * time.Second
)

// ConnectMongo opens a client and pings the primary, retrying a few times in
// case of temporary DNS/network blips.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	logger.Sugar.Infof("connecting to url: %s", cfg.Redacted())

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI()))
	if err != nil {
		return nil, fmt.Errorf("failed to open mongo connection: %w", err)
	}

	for i := 0; i < connectAttempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			logger.Sugar.Info("Successfully connected to MongoDB")
			return client, nil
		}
		logger.Sugar.Infof("MongoDB connection failed, retrying in %s... (%v)", retryDelay, err)
		if !sleep(ctx, retryDelay) {
			break
		}
	}

	_ = client.Disconnect(context.Background())
	return nil, fmt.Errorf("could not connect to MongoDB after retries: %w", err)
}

func ConnectPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	for i := 0; i < connectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", retryDelay, err)
		if !sleep(ctx, retryDelay) {
			break
		}
	}

	db.Close()
	return nil, fmt.Errorf("could not connect to database after retries: %w", err)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
