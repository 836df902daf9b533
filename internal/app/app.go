package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/accounting"
	"github.com/akhatri/ledger-alerts/internal/feed"
	"github.com/akhatri/ledger-alerts/internal/model"
	"github.com/akhatri/ledger-alerts/internal/server"
	"github.com/akhatri/ledger-alerts/internal/store"
	appsync "github.com/akhatri/ledger-alerts/internal/sync"
	"github.com/akhatri/ledger-alerts/internal/ws"
)

const shutdownTimeout = 5 * time.Second

// App wires the store, accounting client, aggregator, poller, websocket
// hub, and HTTP server together.
type App struct {
	cfg        *model.AppConfig
	log        zerolog.Logger
	store      *store.SQLiteStore
	aggregator *feed.Aggregator
	poller     *appsync.Poller
	hub        *ws.Hub
	server     *http.Server
}

// New builds the application from its configuration. It opens the
// database, prunes stale read marks, and restores the previous feed
// snapshot.
func New(cfg *model.AppConfig, log zerolog.Logger) (*App, error) {
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-cfg.ReadMarkRetention())
	if pruned, err := st.PruneReadMarks(ctx, cutoff); err != nil {
		log.Warn().Err(err).Msg("pruning read marks failed")
	} else if pruned > 0 {
		log.Info().Int64("pruned", pruned).Msg("pruned stale read marks")
	}

	hub := ws.NewHub(log)

	client := accounting.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.BackendTimeout())
	aggregator := feed.New(client, st, feed.Options{
		HighValueThreshold: cfg.Feed.HighValueThreshold,
		Logger:             log,
		OnUpdate: func(items []model.Notification) {
			hub.BroadcastFeedUpdate(server.NewFeedResponse(items))
		},
	})
	aggregator.Init(ctx)

	poller := appsync.New(aggregator, cfg.PollInterval(), log)

	h := server.NewHandler(aggregator, log)
	router := server.SetupRouter(h, hub, cfg.Server.AllowedOrigins, log)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	return &App{
		cfg:        cfg,
		log:        log,
		store:      st,
		aggregator: aggregator,
		poller:     poller,
		hub:        hub,
		server:     srv,
	}, nil
}

// Run starts the hub, poller, and HTTP server, then blocks until a
// termination signal arrives and everything has shut down.
func (a *App) Run() error {
	go a.hub.Run()
	a.poller.Start()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Server.Addr).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.log.Error().Err(err).Msg("server failed")
		a.shutdown()
		return err
	case sig := <-quit:
		a.log.Info().Str("signal", sig.String()).Msg("shutting down")
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	a.poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error().Err(err).Msg("server shutdown failed")
	}

	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("closing store failed")
	}
	a.log.Info().Msg("exited")
}
