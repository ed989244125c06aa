package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/extract"
	"github.com/vovakirdan/chatscope-server/internal/pipeline"
	"github.com/vovakirdan/chatscope-server/internal/rt"
	"github.com/vovakirdan/chatscope-server/internal/source"
	"github.com/vovakirdan/chatscope-server/internal/store"
	"github.com/vovakirdan/chatscope-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatscope-server/internal/transport/http"
)

// App wires together the source connector, pipeline, broker and transport.
type App struct {
	server          *stdhttp.Server
	runner          *pipeline.Runner
	broker          *rt.Broker
	store           store.Store
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	connector, err := source.New(cfg.Source, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init source connector: %w", err)
	}

	broker := rt.NewBroker(logger)

	var runner *pipeline.Runner
	if cfg.Pipeline.Enabled {
		extractor := extract.New(extract.NewProseRecognizer(), logger)
		runner = pipeline.NewRunner(connector, extractor, st, broker, cfg.Pipeline, logger)
	} else {
		logger.Info().Msg("ingest pipeline disabled")
	}

	server := transporthttp.NewServer(connector, broker, cfg, logger)

	return &App{
		server:          server,
		runner:          runner,
		broker:          broker,
		store:           st,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and pipeline, blocking until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	if a.runner != nil {
		go func() {
			if err := a.runner.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.Error().Err(err).Msg("pipeline stopped unexpectedly")
			}
		}()
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
