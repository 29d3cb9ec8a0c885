package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songcatalog/config"
	"songcatalog/config/database"
	"songcatalog/internal/song/repository"
	"songcatalog/internal/song/seed"
	"songcatalog/internal/song/service"
	"songcatalog/pkg/events"
	"songcatalog/pkg/logger"
	"songcatalog/router"
	"songcatalog/socket"

	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	logger.Sugar.Errorf("application error: %v", err)
	logger.Sync()
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "songcatalog",
		Usage: "HTTP service for a catalog of song records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Seed the catalog and start the HTTP server",
				Action: serve,
			},
			{
				Name:  "seed",
				Usage: "Replace the catalog with the seed dataset and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Seed file (JSON or YAML); defaults to the bundled dataset",
					},
				},
				Action: seedOnly,
			},
		},
	}
}

func setup(cmd *cli.Command) (*config.Config, error) {
	return loadConfig(cmd.String("config"))
}

// loadConfig initializes the logger at info level so configuration errors are
// reported, then re-initializes it at the configured level.
func loadConfig(path string) (*config.Config, error) {
	logger.Init("info")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Connect to the configured document store.
	repo, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. The hub feeds websocket subscribers; NATS is optional.
	hub := socket.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if cfg.Events.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.NATSSubject)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		publishers = append(publishers, nc)
	}

	songService := service.NewSongService(repo, publishers)

	// 3. Reset the catalog before accepting requests.
	songs, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	if err := songService.Seed(ctx, songs); err != nil {
		return err
	}

	// 4. Serve until interrupted.
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.Setup(songService, hub, cfg.Server.CORSOrigin),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("Song catalog listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func seedOnly(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	path := cmd.String("file")
	if path == "" {
		path = cfg.SeedFile
	}
	songs, err := seed.Load(path)
	if err != nil {
		return err
	}

	if err := service.NewSongService(repo, nil).Seed(ctx, songs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "seeded %d songs\n", len(songs))
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	case config.DriverMemory:
		logger.Sugar.Warn("Using the in-memory store; data is lost on exit")
		return repository.NewMemoryRepository(), func() {}, nil

	default:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Sugar.Errorf("Failed to disconnect from MongoDB: %v", err)
			}
		}
		return repository.NewMongoRepository(coll), closeFn, nil
	}
}
