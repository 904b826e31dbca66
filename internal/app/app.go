package app

import (
	"context"
	"fmt"

	"github.com/semmidev/dumpship/internal/adapter/compressor"
	"github.com/semmidev/dumpship/internal/adapter/database"
	"github.com/semmidev/dumpship/internal/adapter/notifier"
	"github.com/semmidev/dumpship/internal/adapter/storage"
	"github.com/semmidev/dumpship/internal/config"
	"github.com/semmidev/dumpship/internal/domain"
	"github.com/semmidev/dumpship/internal/infrastructure/boundary"
	"github.com/semmidev/dumpship/internal/infrastructure/logger"
	"github.com/semmidev/dumpship/internal/infrastructure/process"
	"github.com/semmidev/dumpship/internal/infrastructure/scratch"
	"github.com/semmidev/dumpship/internal/usecase"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	backupUC domain.BackupExecutor
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Options{
		Level: cfg.App.LogLevel,
		File:  cfg.App.LogFile,
		Color: cfg.App.LogColor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)

	runner := process.NewRunner(log)

	db, err := newDatabase(&cfg.Source, runner)
	if err != nil {
		return nil, err
	}

	comp := newCompressor(cfg.Backup.Compression, runner)

	stor, err := newStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}
	log.Infof("✓ Upload target: %s", stor.Name())

	var notify domain.Notifier
	if cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(&cfg.Notify.Telegram)
		if err != nil {
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			notify = tg
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	backupUC := usecase.NewBackup(
		db,
		comp,
		stor,
		scratch.NewOS(),
		log,
		usecase.Options{
			ScratchDir: cfg.Backup.ScratchDir,
			PreClean:   cfg.Backup.PreClean,
			Escalate: func(f *boundary.LateFault) {
				log.Fatalf("Unrecoverable fault, scratch state removed: %v", f)
			},
			Notifier: notify,
		},
	)

	return &App{
		config:   cfg,
		logger:   log,
		backupUC: backupUC,
	}, nil
}

func newDatabase(cfg *config.SourceConfig, runner *process.Runner) (domain.Database, error) {
	switch cfg.Type {
	case "mongodb":
		return database.NewMongoDB(cfg, runner), nil
	case "mysql":
		return database.NewMySQL(cfg, runner), nil
	case "postgresql":
		return database.NewPostgreSQL(cfg, runner), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func newCompressor(engine string, runner *process.Runner) domain.Compressor {
	if engine == "native" {
		return compressor.NewNative()
	}
	return compressor.NewTar(runner)
}

func newStorage(ctx context.Context, cfg *config.StorageConfig) (domain.Storage, error) {
	switch cfg.Type {
	case "s3":
		s, err := storage.NewS3(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		return s, nil
	case "gdrive":
		s, err := storage.NewGDrive(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Drive: %w", err)
		}
		return s, nil
	case "local":
		s, err := storage.NewLocal(cfg.Path, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Run performs exactly one backup.
func (a *App) Run(ctx context.Context) error {
	if err := a.backupUC.Execute(ctx); err != nil {
		return fmt.Errorf("backup %s: %w", a.config.Source.Name, err)
	}
	return nil
}

func (a *App) Shutdown() {
	a.logger.Close()
}
