package bootstrap

import (
	"context"
	"fmt"

	"github.com/psemenov/texify/internal/config"
	"github.com/psemenov/texify/internal/core/ports"
	"github.com/psemenov/texify/internal/core/usecase"
	"github.com/psemenov/texify/internal/infrastructure/converter/cli"
	"github.com/psemenov/texify/internal/infrastructure/inspect"
	"github.com/psemenov/texify/internal/infrastructure/queue/nats"
	"github.com/psemenov/texify/internal/infrastructure/repository/postgres"
	"github.com/psemenov/texify/internal/infrastructure/resilience"
	"github.com/psemenov/texify/internal/infrastructure/storage/localfs"
	"github.com/psemenov/texify/internal/infrastructure/storage/miniostore"
)

type App struct {
	Config config.Config

	Repo      ports.DocumentRepository
	Workspace ports.Workspace
	UploadUC  ports.DocumentUploader
	EditUC    ports.DocumentEditor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store, err := miniostore.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	workspace, err := localfs.NewWorkspace(cfg.StagingDir, cfg.OutputDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init workspace: %w", err)
	}

	publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event publisher: %w", err)
	}

	runner := cli.NewRunner(cfg.ToolInterpreter, cfg.ConvertScript, cfg.EditScript)
	inspector := inspect.NewPDFInspector()

	uploadUC := usecase.NewUploadDocumentUseCase(repo, store, workspace, runner, inspector, publisher)
	editUC := usecase.NewEditDocumentUseCase(runner)

	return &App{
		Config: cfg,

		Repo:      repo,
		Workspace: workspace,
		UploadUC:  uploadUC,
		EditUC:    editUC,

		closeFn: func() {
			publisher.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
