package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/bootstrap"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/config"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/observability/logging"
)

// Documents that cannot finish inside this window are marked failed and
// must be re-submitted.
const processTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", app.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	handler := func(msgCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(msgCtx, processTimeout)
		defer cancel()

		observeQueueLag(processCtx, app, documentID)

		start := time.Now()
		if err := app.ProcessUC.ProcessByID(processCtx, documentID); err != nil {
			logger.Error("document_processing_failed",
				"document_id", documentID,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			return err
		}

		logger.Info("document_processed",
			"document_id", documentID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	// Blocks until the context is cancelled, then drains the subscription.
	logger.Info("worker_started", "subject", cfg.NATSSubject)
	if err := app.Queue.SubscribeDocumentUploaded(ctx, handler); err != nil {
		logger.Error("subscription_failed", "error", err)
	}

	logger.Info("shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info("shutdown_complete")
}

func observeQueueLag(ctx context.Context, app *bootstrap.App, documentID string) {
	doc, err := app.Repo.GetByID(ctx, documentID)
	if err != nil {
		return
	}
	app.Metrics.ObserveQueueLag(time.Since(doc.CreatedAt))
}
