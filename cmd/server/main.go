package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrosnab/internal/apierror"
	"agrosnab/internal/config"
	"agrosnab/internal/infra"
	"agrosnab/internal/repository"
	"agrosnab/internal/router"
	"agrosnab/internal/sheets"
	"agrosnab/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Spreadsheet driver. The memory driver serves local development and
	// demos without Google credentials.
	cb := infra.NewSheetsBreaker(infra.DefaultBreakerConfig())
	var api sheets.API
	switch cfg.SheetsDriver {
	case "google":
		api, err = infra.NewGoogleSheets(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsFile, cb)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init google sheets client")
		}
	case "memory":
		mem := sheets.NewMemory()
		mem.Seed(cfg.ProductSheet, [][]string{
			{"SKU", "Name", "Price_RUB", "Stock_Calc", "Photo_URL", "Active"},
		})
		api = mem
	default:
		log.Fatal().Str("driver", cfg.SheetsDriver).Msg("unknown sheets driver")
	}

	// The column map is loaded once at startup. A malformed product sheet is
	// a configuration error, not something to limp along with.
	schema := sheets.NewSchema(api, cfg.ProductSheet)
	if _, err := schema.LoadColumnMap(ctx); err != nil {
		if se, ok := err.(*apierror.SchemaError); ok {
			log.Fatal().Str("sheet", se.Sheet).Strs("missing", se.Missing).
				Msg("product sheet is missing required columns")
		}
		log.Fatal().Err(err).Msg("failed to load product sheet schema")
	}

	// Async workers: low-stock alert emails plus the expiry sweep.
	mailer := infra.NewMailer(cfg)
	handlers := map[string]worker.Handler{
		"low_stock": worker.NewAlertWorker(mailer, cfg.AlertEmail),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
	worker.StartCleanupCron(ctx, worker.CleanupCronConfig{
		Actions:  repository.NewConfirmActionRepository(db),
		Sessions: repository.NewIntakeSessionRepository(db),
	})

	r := router.New(cfg, router.Deps{
		DB:     db,
		RDB:    rdb,
		Sheets: api,
		Schema: schema,
		CB:     cb,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("agrosnab backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
