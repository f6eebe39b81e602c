// facturasd is the long-running service: it watches folders, polls the
// expense mailbox, serves the HTTP API and runs extractions on a worker
// pool.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/BailaoHugo/gestao-facturas/internal/async"
	"github.com/BailaoHugo/gestao-facturas/internal/common"
	"github.com/BailaoHugo/gestao-facturas/internal/extract"
	"github.com/BailaoHugo/gestao-facturas/internal/ingest"
	"github.com/BailaoHugo/gestao-facturas/internal/ledger"
	"github.com/BailaoHugo/gestao-facturas/internal/mailbox"
	"github.com/BailaoHugo/gestao-facturas/internal/ocr"
	"github.com/BailaoHugo/gestao-facturas/internal/pipeline"
	"github.com/BailaoHugo/gestao-facturas/internal/repository"
	"github.com/BailaoHugo/gestao-facturas/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		logger.Error("missing DB_URL environment variable")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	invoicesRepo := repository.NewInvoiceRepository(pool, logger)
	costsRepo := repository.NewCostLineRepository(pool, logger)
	if err := invoicesRepo.EnsureSchema(ctx); err != nil {
		os.Exit(1)
	}
	if err := costsRepo.EnsureSchema(ctx); err != nil {
		os.Exit(1)
	}

	vocab := extract.DefaultVocabulary()
	if cfg.Extract.VocabPath != "" {
		vocab, err = extract.LoadVocabulary(cfg.Extract.VocabPath)
		if err != nil {
			logger.Error("failed to load vocabulary", "path", cfg.Extract.VocabPath, "error", err)
			os.Exit(1)
		}
	}

	classifier, err := ledger.LoadClassifier(cfg.Paths.ConfigDir)
	if err != nil {
		logger.Error("failed to load classification tables", "error", err)
		os.Exit(1)
	}
	validCenters, err := ledger.LoadValidCenters(cfg.Paths.ConfigDir)
	if err != nil {
		logger.Error("failed to load cost centers", "error", err)
		os.Exit(1)
	}

	textExtractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	sink := &pipeline.DBSink{Invoices: invoicesRepo, CostLines: costsRepo}
	proc := pipeline.New(logger, textExtractor, extract.NewExtractor(vocab), classifier, sink, cfg.Paths.ExtractedDir)

	queue := async.NewExtractQueue(proc, logger,
		async.WithWorkers(cfg.Extract.Workers),
		async.WithQueueSize(cfg.Extract.QueueSize),
		async.WithProcessTimeout(cfg.Extract.Timeout),
	)

	// Folder ingestion
	if len(cfg.Paths.WatchDirs) > 0 {
		events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Paths.WatchDirs,
			InitialScan: true,
			Debounce:    2 * time.Second,
		})
		if err != nil {
			logger.Error("failed to start folder watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range events {
				_ = queue.Enqueue(ctx, async.NewJob(path, "pasta:"+path, ""))
			}
		}()
		go func() {
			for err := range watchErrs {
				logger.Error("watcher error", "error", err)
			}
		}()
		logger.Info("watching folders", "dirs", cfg.Paths.WatchDirs)
	}

	// Mailbox polling
	var scheduler *cron.Cron
	if cfg.Mail.IMAPHost != "" {
		poller := mailbox.NewPoller(mailbox.Config{
			Host:     cfg.Mail.IMAPHost,
			Port:     cfg.Mail.IMAPPort,
			Username: cfg.Mail.User,
			Password: cfg.Mail.Password,
			Mailbox:  cfg.Mail.Mailbox,
		}, queue, cfg.Paths.UploadsDir, validCenters, logger)

		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Mail.Schedule, func() {
			n, err := poller.Poll(ctx)
			if err != nil {
				logger.Error("mailbox poll failed", "error", err)
				return
			}
			if n > 0 {
				logger.Info("mailbox poll queued attachments", "count", n)
			}
		})
		if err != nil {
			logger.Error("invalid poll schedule", "schedule", cfg.Mail.Schedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("mailbox polling scheduled", "host", cfg.Mail.IMAPHost, "schedule", cfg.Mail.Schedule)
	}

	// HTTP API
	api := server.New(logger, queue, costsRepo, func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool, 3*time.Second, logger)
	}, cfg.Paths.UploadsDir, validCenters)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http api listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	queue.Shutdown(shutdownCtx)
}
