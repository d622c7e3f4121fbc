package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/Docshelf/internal/config"
	"github.com/markdave123-py/Docshelf/internal/core"
	db "github.com/markdave123-py/Docshelf/internal/core/database"
	"github.com/markdave123-py/Docshelf/internal/core/drive"
	"github.com/markdave123-py/Docshelf/internal/core/extraction"
	"github.com/markdave123-py/Docshelf/internal/core/ingestion_engine"
	"github.com/markdave123-py/Docshelf/internal/core/llm"
	objectclient "github.com/markdave123-py/Docshelf/internal/core/object-client"
	"github.com/markdave123-py/Docshelf/internal/core/textlayer"
	"github.com/markdave123-py/Docshelf/internal/logger"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Reconciler   *ingestion_engine.Reconciler
	Server       *Server
	closers      []io.Closer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, objClient, err := NewStores(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{DBClient: dbClient, ObjectClient: objClient, closers: []io.Closer{dbClient}}

	model, err := newVisionModel(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the vision model: %w", err)
	}
	if c, ok := model.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	log.Info().Str("provider", cfg.VisionProvider).Msg("Vision model initialized and ready.")

	extractor := extraction.NewClient(model, textlayer.New(cfg.PDFTextEngine), logger.WithComponent("extraction"))
	fetcher := drive.NewFetcher(cfg.DriveEndpoint, cfg.MaxUploadBytes())

	a.Server = NewServer(cfg, Deps{
		DB:        dbClient,
		Objects:   objClient,
		Extractor: extractor,
		Remote:    fetcher,
	})
	a.Reconciler = ingestion_engine.NewReconciler(dbClient, objClient, cfg.SweepGrace, logger.WithComponent("reconciler"))
	return a, nil
}

// NewStores opens the document store and blob store selected by cfg.
func NewStores(ctx context.Context, cfg *config.Config) (core.DbClient, core.ObjectClient, error) {
	var dbClient core.DbClient
	if cfg.DatabaseURL == config.MemoryDatabase {
		dbClient = db.NewMemoryClient()
		log.Warn().Msg("Using in-memory database; data is lost on restart.")
	} else {
		pg, err := db.NewDatabaseClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dbClient = pg
		log.Info().Msg("Database initialized and ready.")
	}

	var (
		objClient core.ObjectClient
		err       error
	)
	switch cfg.StorageBackend {
	case "s3":
		objClient, err = objectclient.NewS3Client(ctx, cfg)
	default:
		objClient, err = objectclient.NewLocalClient(cfg.UploadDir)
	}
	if err != nil {
		_ = dbClient.Close()
		return nil, nil, err
	}
	log.Info().Str("backend", cfg.StorageBackend).Msg("Object client initialized and ready.")
	return dbClient, objClient, nil
}

func newVisionModel(ctx context.Context, cfg *config.Config) (core.VisionModel, error) {
	switch cfg.VisionProvider {
	case "gemini":
		g, err := llm.NewGeminiVision(ctx, cfg.GeminiAPIKey, cfg.VisionModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		return llm.NewOpenAIVision(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.VisionModel), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.VisionProvider)
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}
