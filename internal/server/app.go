// Package server wires the BloomBuddy backend together: database and
// migrations, object storage, the external plant APIs, the services, and
// the HTTP and gRPC listeners that expose them.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/metrics"
	"github.com/dmitrijs2005/bloombuddy/internal/perenual"
	"github.com/dmitrijs2005/bloombuddy/internal/plantid"
	"github.com/dmitrijs2005/bloombuddy/internal/server/config"
	"github.com/dmitrijs2005/bloombuddy/internal/server/httpapi"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
	"github.com/dmitrijs2005/bloombuddy/internal/server/storage"

	gs "github.com/dmitrijs2005/bloombuddy/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	grpc   *gs.GRPCServer
}

// NewApp connects to the database, applies migrations and builds both
// transports. Missing API keys only disable the features that need them.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.NewJSON(os.Stdout, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m := metrics.New()

	images, err := storage.New(ctx, storage.Config{
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3RootUser,
		SecretKey:     cfg.S3RootPassword,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var identifier services.Identifier
	pid, err := plantid.New(plantid.Config{
		APIKey:  cfg.PlantIDAPIKey,
		BaseURL: cfg.PlantIDBaseURL,
		Timeout: cfg.UpstreamTimeout,
	}, m)
	switch {
	case errors.Is(err, plantid.ErrNoAPIKey):
		logger.Warn(ctx, "plant identification disabled", "reason", err.Error())
	case err != nil:
		_ = db.Close()
		return nil, fmt.Errorf("plant.id init error: %w", err)
	default:
		identifier = pid
	}

	careLookup := perenual.New(perenual.Config{
		APIKey:   cfg.PerenualAPIKey,
		BaseURL:  cfg.PerenualBaseURL,
		Timeout:  cfg.UpstreamTimeout,
		CacheTTL: cfg.CareCacheTTL,
	}, m, logger)
	if !careLookup.Enabled() {
		logger.Warn(ctx, "care facts lookup disabled", "reason", "perenual API key not set")
	}

	users := services.NewUserService(db, rm, cfg, logger)
	plants := services.NewPlantService(db, rm, images, logger)
	reminders := services.NewReminderService(db, rm, logger)
	identify := services.NewIdentifyService(identifier, careLookup, logger)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		http: httpapi.New(cfg.EndpointAddrHTTP, httpapi.Deps{
			Users:     users,
			Plants:    plants,
			Reminders: reminders,
			Identify:  identify,
			Metrics:   m,
			Logger:    logger,
		}),
		grpc: gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, users, plants, reminders),
	}, nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives, or either listener fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.db.Close()

	app.logger.Info(ctx, "starting app",
		"http_addr", app.config.EndpointAddrHTTP,
		"grpc_addr", app.config.EndpointAddrGRPC)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.grpc.Run(ctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "server stopped")
	return nil
}
