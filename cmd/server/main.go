package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/chat"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/config"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/db"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/extractor"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/handlers"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/llm"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/repository"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/router"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/services"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/storage"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/summary"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Generation service, or the rule-based stand-in
	gen := llm.New(cfg, logger)

	pdfRenderer := extractor.NewPDFRenderer(cfg.PdftoppmPath, cfg.OCRDPI, cfg.OCRMaxPages, logger)
	acquirerOpts := []extractor.Option{
		extractor.WithRenderer(extractor.FormatPDF, pdfRenderer),
		extractor.WithConcurrency(cfg.OCRConcurrency),
		extractor.WithMaxPages(cfg.OCRMaxPages),
	}
	ocrEnabled := false
	if openAI, ok := gen.(*llm.OpenAIGenerator); ok && cfg.OCREnabled {
		acquirerOpts = append(acquirerOpts, extractor.WithRecognizer(llm.NewVisionRecognizer(openAI, cfg.LLMVisionModel)))
		ocrEnabled = true
		logger.Info("Scanned report recognition enabled", "model", cfg.LLMVisionModel, "rasterize", pdfRenderer.Rasterizes())
		if !pdfRenderer.Rasterizes() {
			logger.Warn("pdftoppm not found, scanned PDFs are read from embedded page images only", "binary", cfg.PdftoppmPath)
		}
	}

	deps := services.Dependencies{
		Acquirer:    extractor.NewAcquirer(logger, acquirerOpts...),
		Summarizer:  summary.NewBuilder(gen, logger),
		Responder:   chat.NewResponder(gen, logger),
		MaxFileSize: cfg.MaxFileSize,
	}

	// Optional report history
	if cfg.HistoryEnabled() {
		database, err := db.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			logger.Fatal("Failed to open history database", "error", err, "path", cfg.DatabasePath)
		}
		defer database.Close()

		deps.Repo = repository.NewRepository(database)
		logger.Info("Report history enabled", "path", cfg.DatabasePath)
	}

	// Optional upload archive
	if cfg.ArchiveEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := storage.NewS3Archive(ctx, cfg)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize S3 archive", "error", err)
		}

		deps.Archive = archive
		logger.Info("Report archive enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketName)
	}

	reportService := services.NewService(deps, logger)

	// Setup HTTP router
	handler := router.NewRouter(reportService, router.Options{
		MaxFileSize:        cfg.MaxFileSize,
		ChatRatePerMinute:  cfg.ChatRatePerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		Features: handlers.Features{
			LLM:     cfg.LLMConfigured(),
			OCR:     ocrEnabled,
			History: cfg.HistoryEnabled(),
			Archive: cfg.ArchiveEnabled(),
		},
	}, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
