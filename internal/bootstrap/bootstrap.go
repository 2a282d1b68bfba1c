// Package bootstrap is the composition root: it builds the full object
// graph from configuration for both the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/config"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/confidence"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/identify"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/mapping"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/pipeline"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/pipeline/steps"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/routing"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/terms"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/usecase"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/export"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/docintel"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/filetype"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/queue/nats"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/repository/postgres"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/resilience"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/storage/localfs"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/vision"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/observability/logging"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  *usecase.IngestUseCase
	ProcessUC *usecase.ProcessUseCase
	Exporter  *export.Service
	Metrics   *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := config.LoadPipelinePolicy(cfg.PipelinePolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline policy: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	repoLogger := logging.WithComponent(logger, "repository")
	repo := postgres.NewDocumentRepository(db)
	configRepo := postgres.NewConfigRepository(db, repoLogger)
	patternRepo := postgres.NewPatternRepository(db)
	formatRepo := postgres.NewFormatRepository(db, cfg.FormatAutoCreate, repoLogger)
	termRepo := postgres.NewTermRepository(db)
	accuracyRepo := postgres.NewAccuracyRepository(db)

	structured := docintel.New(cfg.DocintelURL, cfg.DocintelAPIKey, cfg.DocintelModel,
		docintel.WithExecutor(executor))
	visionClient := vision.New(cfg.VisionURL, cfg.VisionModel,
		vision.WithExecutor(executor))
	detector := filetype.NewDetector()

	coreLogger := logging.WithComponent(logger, "core")
	matcher := identify.NewMatcher(patternRepo, coreLogger)
	mapper := mapping.NewMapper(coreLogger)
	recorder := terms.NewRecorder(termRepo, coreLogger)

	calculator, err := confidence.NewCalculator(policy.ConfidenceWeights(), cfg.MinSampleSize)
	if err != nil {
		return nil, fmt.Errorf("build confidence calculator: %w", err)
	}
	engine, err := routing.NewEngine(policy.RoutingThresholds())
	if err != nil {
		return nil, fmt.Errorf("build routing engine: %w", err)
	}

	pipelineLogger := logging.WithComponent(logger, "pipeline")
	pipelineSteps := []pipeline.Step{
		steps.NewFileTypeDetection(detector),
		steps.NewSmartRouting(),
		steps.NewIssuerIdentification(detector, visionClient, matcher),
		steps.NewFormatMatching(formatRepo, detector),
		steps.NewConfigFetching(configRepo),
		steps.NewPrimaryExtraction(structured),
		steps.NewVisionExtraction(visionClient),
		steps.NewFieldMapping(mapper),
		steps.NewTermRecording(recorder, pipelineLogger),
		steps.NewConfidenceCalculation(calculator, accuracyRepo, pipelineLogger),
		steps.NewRoutingDecision(engine),
	}
	factory, err := pipeline.NewFactory(pipelineSteps, policy.StepConfigs(), pipelineLogger)
	if err != nil {
		return nil, fmt.Errorf("build pipeline factory: %w", err)
	}

	pipelineMetrics := metrics.NewPipelineMetrics("document-pipeline")
	notifier := nats.NewProgressPublisher(queue, cfg.NATSProgressSubject, logger)
	orchestrator := pipeline.NewOrchestrator(factory, notifier, pipelineMetrics, pipelineLogger, cfg.BatchConcurrency)
	legacy := pipeline.NewLegacyAdapter(structured, visionClient, engine, pipelineLogger)
	selector := pipeline.NewSelector(orchestrator, legacy)

	defaults := domain.ProcessingFlags{
		UsePipeline:   cfg.UsePipeline,
		TermAutoSave:  cfg.TermAutoSave,
		VisionEnabled: cfg.VisionEnabled,
	}

	ingestUC := usecase.NewIngestUseCase(repo, storage, queue)
	processUC := usecase.NewProcessUseCase(repo, storage, selector, defaults)
	exporter := export.NewService(repo, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		Exporter:  exporter,
		Metrics:   pipelineMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
