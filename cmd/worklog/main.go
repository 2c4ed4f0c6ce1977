package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"worklog/internal/amqp"
	"worklog/internal/auth"
	"worklog/internal/backend"
	"worklog/internal/catalog"
	"worklog/internal/config"
	apphttp "worklog/internal/http"
	gsheet "worklog/internal/sheets/google"
	"worklog/internal/services"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reference source and catalog cache
	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	catalogs := catalog.NewCache(sheetsClient,
		catalog.WithTTL(cfg.CatalogTTL),
		catalog.WithWorksheets(catalog.Worksheets{
			Persons:   cfg.PersonsWorksheet,
			WorkCodes: cfg.WorkCodesWorksheet,
			Processes: cfg.ProcessesWorksheet,
		}),
	)
	catalogs.Warm(ctx)

	// Record store
	result, err := backend.NewFactory(logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize record store", "error", err, "backend", cfg.RecordsBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Record store cleanup error", "error", err)
			}
		}()
	}

	// Optional record event publisher
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are an audit side channel; the app works without them.
			logger.Error("Failed to connect to AMQP broker, continuing without events", "error", err)
		} else {
			defer broker.Close()
			events = broker
			logger.Info("Record events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, cfg.SessionSecret,
		catalogs,
		auth.New(catalogs),
		services.NewMonthViewService(result.Store),
		services.NewRecordService(result.Store, events),
	)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting worklog server", "port", cfg.Port, "records_backend", cfg.RecordsBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
