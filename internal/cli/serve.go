package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memory_console/internal/config"
	"memory_console/internal/definition"
	"memory_console/internal/engine"
	"memory_console/internal/expr"
	"memory_console/internal/handlers"
	"memory_console/internal/ingest"
	"memory_console/internal/livestore"
	"memory_console/internal/logger"
	"memory_console/internal/metrics"
	"memory_console/internal/repository"
	"memory_console/internal/repository/db"
	"memory_console/internal/server"
	"memory_console/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg config.Config) error {
	log := logger.Get(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	conn, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init sqlite %s: %w", cfg.DBPath, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	store := livestore.New(livestore.WithStaleAfter(cfg.Engine.StaleAfter))
	m := metrics.New()
	eval := expr.NewEvaluator()
	eng := engine.New(store, eval, engine.Config{
		IntervalUnit:   cfg.Engine.IntervalUnit,
		ResolveTimeout: cfg.Engine.ResolveTimeout,
		CommitTimeout:  cfg.Engine.CommitTimeout,
	}, engine.WithLogger(log), engine.WithMetrics(m), engine.WithEvents(repos.EventRepo))
	services := service.NewService(repos, service.Deps{
		Engine:  eng,
		Store:   store,
		Checker: eval,
		Metrics: m,
		Log:     log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Catalog.Load(ctx); err != nil {
		return err
	}
	if cfg.Engine.SeedFile != "" {
		if err := seed(ctx, services, cfg.Engine.SeedFile, log); err != nil {
			return err
		}
	}

	runtimeDone := make(chan error, 1)
	go func() { runtimeDone <- services.Runtime.Run(ctx) }()

	if cfg.MQTT.Enabled {
		sub := ingest.NewSubscriber(ingest.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, services.Catalog, log)
		go func() {
			if err := sub.Start(ctx); err != nil {
				log.Errorw("ingest_failed", "err", err)
			}
		}()
	}

	apiHandler := handlers.NewHandler(services, m, log)
	apiHandler.SetStreamInterval(cfg.WS.DefaultInterval)
	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	serveErr := make(chan error, 1)
	go func() {
		log.Infow("http_listening", "addr", srv.Addr())
		serveErr <- srv.Run()
	}()

	return waitForShutdown(cancel, srv, serveErr, runtimeDone, log)
}

func seed(ctx context.Context, services *service.Service, path string, log *logger.Logger) error {
	f, err := definition.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	res, err := definition.Seed(ctx, definition.ForService(services), f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	log.Infow("seed_applied", "file", path, "points", res.Points, "variables", res.Variables,
		"created", res.Created, "updated", res.Updated)
	return nil
}

// waitForShutdown blocks until a termination signal or a fatal component
// error, then stops the engine and drains in-flight requests.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, serveErr, runtimeDone <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var cause error
	select {
	case <-quit:
		log.Infow("shutting down server...")
	case err := <-serveErr:
		cause = fmt.Errorf("http server: %w", err)
	case err := <-runtimeDone:
		cause = fmt.Errorf("runtime: %w", errOrStopped(err))
		runtimeDone = nil
	}

	// stop background goroutines
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if runtimeDone != nil {
		if err := <-runtimeDone; err != nil && cause == nil {
			cause = err
		}
	}
	return cause
}

var errRuntimeStopped = errors.New("stopped unexpectedly")

func errOrStopped(err error) error {
	if err == nil {
		return errRuntimeStopped
	}
	return err
}
