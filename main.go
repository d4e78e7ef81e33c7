// main.go
//
// Entrypoint for the Cat Hunt board server.
// Loads configuration, sets up logging, picks the board store and serves
// HTTP until SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cathunt/internal/auth"
	"github.com/robalobadob/cathunt/internal/board"
	"github.com/robalobadob/cathunt/internal/config"
	"github.com/robalobadob/cathunt/internal/httpserver"
	"github.com/robalobadob/cathunt/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	admin, err := auth.NewAdmin(cfg.AdminCode, cfg.AdminCodeHash)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid admin secret")
	}
	if !admin.Enabled() {
		log.Warn().Msg("no ADMIN_CODE configured, admin actions are disabled")
	}

	st, closeStore := openStore(cfg)
	defer closeStore()

	boards := board.NewDispatcher(st)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpserver.New(boards, admin, httpserver.Options{
			ClientOrigin:   cfg.ClientOrigin,
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("starting cathunt server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// openStore builds the configured board store. A missing DSN is not fatal:
// the server starts and board requests fail with a configuration error.
func openStore(cfg config.Config) (board.Store, func()) {
	if cfg.Store == config.StoreMemory {
		return store.NewMemory(cfg.BoardID, cfg.BoardName), func() {}
	}
	dsn := cfg.DatabaseURL()
	if dsn == "" {
		log.Error().Msg("no DATABASE_URL / NEON_DATABASE_URL / NETLIFY_DATABASE_URL set")
		return store.Unconfigured{}, func() {}
	}
	db, dialect, err := store.OpenDB(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Warn().Err(err).Str("dialect", dialect).Msg("database not reachable yet")
	}
	log.Info().Str("dialect", dialect).Str("board", cfg.BoardID).Msg("using sql store")
	return store.NewSQL(db, dialect, cfg.BoardID, cfg.BoardName), func() { _ = db.Close() }
}
