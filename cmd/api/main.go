package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	categorizeStore "github.com/MrJamesThe3rd/ledgerly/internal/categorize/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/database"
	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	ledgerlyHttp "github.com/MrJamesThe3rd/ledgerly/internal/http"
	authHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/auth"
	categorizeHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/categorize"
	exportHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	statsHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/stats"
	txHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledgerly/internal/transaction/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/user"
	userStore "github.com/MrJamesThe3rd/ledgerly/internal/user/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DB.Migrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			return err
		}

		slog.Info("migrations applied")
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	var (
		userService        = user.NewService(userStore.New(db), auth.NewPasswords(cfg.Auth.BcryptCost))
		transactionService = transaction.NewService(txStore.New(db), transaction.WithHiddenForeign(cfg.Auth.HideForeign))
		categorizeService  = categorize.NewService(categorizeStore.New(db))
		statsService       = stats.NewService(transactionService)
		importService      = importer.NewService(categorizeService)
		exportService      = export.NewService(transactionService)
	)

	router := ledgerlyHttp.New(
		ledgerlyHttp.Options{
			CORSOrigins:  cfg.CORS.Origins,
			Detail:       !cfg.IsProduction(),
			Authenticate: middleware.Authenticate(tokens, userService),
		},
		authHandler.NewHandler(userService, tokens, cfg.IsProduction()),
		txHandler.NewHandler(transactionService),
		statsHandler.NewHandler(statsService, stats.DefaultSpendingThreshold),
		importHandler.NewHandler(importService, transactionService),
		exportHandler.NewHandler(exportService),
		categorizeHandler.NewHandler(categorizeService),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "port", cfg.App.Port, "env", cfg.App.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
