package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/api/handlers"
	"github.com/markdave123-py/AskNest/internal/config"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/contentstack"
	db "github.com/markdave123-py/AskNest/internal/core/database"
	"github.com/markdave123-py/AskNest/internal/core/ingestion_engine"
	"github.com/markdave123-py/AskNest/internal/core/llm"
	objectclient "github.com/markdave123-py/AskNest/internal/core/object-client"
	"github.com/markdave123-py/AskNest/internal/core/retry"
	"github.com/markdave123-py/AskNest/internal/services"
)

type App struct {
	Store        *contentstack.Client
	LLM          *llm.GeminiLLM
	Recorder     *db.RunRecorder
	DocProcessor ingestion_engine.Ingestor
	Server       *Server

	log *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{log: logger}

	store, err := contentstack.NewClient(contentstack.Options{
		APIBase:         cfg.ContentstackAPIBase,
		CDNBase:         cfg.ContentstackCDNBase,
		APIKey:          cfg.ContentstackAPIKey,
		ManagementToken: cfg.ContentstackManagementToken,
		DeliveryToken:   cfg.ContentstackDeliveryToken,
		Environment:     cfg.ContentstackEnvironment,
		Locale:          cfg.ContentstackLocale,
		WriteRate:       cfg.CMSWriteRate,
		Timeout:         cfg.CMSTimeout,
	}, logger.Named("contentstack"))
	if err != nil {
		return nil, fmt.Errorf("knowledge store: %w", err)
	}
	a.Store = store

	gen, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel, logger.Named("gemini"))
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the model client: %w", err)
	}
	a.LLM = gen

	var obj core.ObjectClient
	if cfg.ObjectStorageEnabled() {
		s3c, err := objectclient.NewS3Client(appCtx, cfg, logger.Named("s3"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("object storage: %w", err)
		}
		obj = s3c
	}

	var (
		recorder core.IngestionRecorder
		runs     handlers.RunLister
	)
	if cfg.RecordIngestionRuns() {
		rec, err := db.NewRunRecorder(appCtx, cfg, logger.Named("db"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ingestion runs database: %w", err)
		}
		a.Recorder = rec
		recorder, runs = rec, rec
	}

	readPolicy := retry.Policy{Attempts: cfg.ReadRetryAttempts, Delay: cfg.ReadRetryDelay}
	faqs := llm.NewFAQClient(gen, logger.Named("faq"))

	extractor := ingestion_engine.NewFallbackExtractor(logger.Named("extract"),
		ingestion_engine.NewDocconvExtractor(false),
		ingestion_engine.PlainPDFExtractor{},
	)

	a.DocProcessor = ingestion_engine.NewDocumentIngestor(store, obj, extractor, faqs, recorder,
		&ingestion_engine.IngestConfig{
			ChunkSize:           cfg.ChunkSize,
			Chunked:             cfg.IngestChunked,
			FAQWriteConcurrency: cfg.FAQWriteConcurrency,
			ReadRetry:           readPolicy,
		}, logger.Named("ingest"))

	users := services.NewUserService(store, readPolicy, logger)
	verifier, err := newVerifier(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Server = NewServer(cfg, logger, verifier, Handlers{
		Documents: handlers.NewDocumentHandler(a.DocProcessor, users, runs, cfg.MaxUploadMB, logger),
		Orgs:      handlers.NewOrgHandler(services.NewOrgService(store, readPolicy, logger), logger),
		Users:     handlers.NewUserHandler(users, logger),
		Chat:      handlers.NewChatHandler(services.NewChatService(store, faqs, readPolicy, logger), logger),
	})
	return a, nil
}

func (a *App) Close() {
	if a.Recorder != nil {
		if err := a.Recorder.Close(); err != nil {
			a.log.Warn("close database", zap.Error(err))
		}
	}
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.log.Warn("close model client", zap.Error(err))
		}
	}
}
