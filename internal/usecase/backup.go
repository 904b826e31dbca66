package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/semmidev/dumpship/internal/domain"
	"github.com/semmidev/dumpship/internal/infrastructure/boundary"
	"github.com/semmidev/dumpship/internal/infrastructure/logger"
	"github.com/semmidev/dumpship/internal/infrastructure/scratch"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type Scratch interface {
	Prepare(dir string) error
	Size(path string) (int64, error)
	Clean(set scratch.CleanupSet) error
}

// Stage is one step of the pipeline. Stages run strictly in order and the
// first failure aborts the rest.
type Stage struct {
	Label string
	Run   func(ctx context.Context) error
}

type Options struct {
	ScratchDir string
	PreClean   bool
	// Escalate receives faults caught by the upload boundary after cleanup.
	// Defaults to an unrecovered panic.
	Escalate boundary.EscalateFunc
	Notifier domain.Notifier
	Now      func() time.Time
}

type Backup struct {
	db         domain.Database
	compressor domain.Compressor
	storage    domain.Storage
	scratch    Scratch
	logger     Logger
	opts       Options
}

func NewBackup(
	db domain.Database,
	compressor domain.Compressor,
	storage domain.Storage,
	scratch Scratch,
	logger Logger,
	opts Options,
) *Backup {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Escalate == nil {
		opts.Escalate = func(f *boundary.LateFault) { panic(f) }
	}
	return &Backup{
		db:         db,
		compressor: compressor,
		storage:    storage,
		scratch:    scratch,
		logger:     logger,
		opts:       opts,
	}
}

func (uc *Backup) NewJob() domain.BackupJob {
	now := uc.opts.Now()
	source := uc.db.GetName()
	archiveName := ArchiveName(source, now)

	return domain.BackupJob{
		Source:      source,
		ArchiveName: archiveName,
		ScratchDir:  uc.opts.ScratchDir,
		DumpDir:     filepath.Join(uc.opts.ScratchDir, DumpDirName(source, now)),
		ArchivePath: filepath.Join(uc.opts.ScratchDir, archiveName),
		StartedAt:   now,
	}
}

// Execute runs one backup. The CleanupSet is always removed before it
// returns. The returned error is the first stage failure, or the cleanup
// failure when every stage succeeded.
func (uc *Backup) Execute(ctx context.Context) error {
	job := uc.NewJob()
	tag := logger.Tag(job.Source)
	uc.logger.Infof("%s Starting backup: %s", tag, job.ArchiveName)

	cleanup := newJobCleanup(uc.scratch, scratch.NewCleanupSet(job.DumpDir, job.ArchivePath), uc.logger, tag)
	if uc.opts.PreClean {
		cleanup.preClean()
	}

	upload := boundary.New(StageUpload, cleanup.Run, uc.opts.Escalate, uc.logger)

	var size int64
	stages := uc.stages(job, upload, &size)
	stageErr := runStages(ctx, stages, uc.logger, tag)

	cleanupErr := cleanup.Run()

	// A fault already owns escalation; the job only reports its normal channel.
	if upload.Disposed() {
		<-upload.Handled()
		return stageErr
	}

	err := stageErr
	if err == nil && cleanupErr != nil {
		err = cleanupErr
		uc.logger.Errorf("%s Backup failed during cleanup: %v", tag, err)
	}

	report := domain.BackupReport{
		Source:      job.Source,
		ArchiveName: job.ArchiveName,
		Key:         uc.storage.ObjectKey(job.ArchiveName),
		Size:        size,
		Duration:    time.Since(job.StartedAt),
		Err:         err,
	}
	if err == nil {
		uc.logger.Infof("%s Backup completed in %s: %s (%.2f MB) -> %s",
			tag, report.Duration.Round(time.Second), job.ArchiveName,
			float64(size)/(1024*1024), uc.storage.Name())
	}
	uc.notify(ctx, report, tag)

	return err
}

func (uc *Backup) stages(job domain.BackupJob, upload *boundary.Boundary, size *int64) []Stage {
	return []Stage{
		{
			Label: StageDump,
			Run: func(ctx context.Context) error {
				if err := uc.scratch.Prepare(job.DumpDir); err != nil {
					return err
				}
				return uc.db.Dump(ctx, job.DumpDir)
			},
		},
		{
			Label: StageCompress,
			Run: func(ctx context.Context) error {
				if err := uc.compressor.Compress(ctx, job.ScratchDir, filepath.Base(job.DumpDir), job.ArchiveName); err != nil {
					return err
				}
				if n, err := uc.scratch.Size(job.ArchivePath); err == nil {
					*size = n
				}
				return nil
			},
		},
		{
			Label: StageUpload,
			Run: func(ctx context.Context) error {
				return upload.Run(ctx, func(ctx context.Context, fault boundary.FaultFunc) error {
					return uc.storage.Upload(ctx, job.ArchivePath, job.ArchiveName, domain.FaultFunc(fault))
				})
			},
		},
	}
}

func runStages(ctx context.Context, stages []Stage, log Logger, tag string) error {
	for _, stage := range stages {
		start := time.Now()
		log.Infof("%s Running %s stage...", tag, stage.Label)

		if err := stage.Run(ctx); err != nil {
			if errors.Is(err, boundary.ErrAbandoned) {
				return err
			}
			stageErr := &StageError{Stage: stage.Label, Err: err}
			log.Errorf("%s Backup aborted: %v", tag, stageErr)
			return stageErr
		}

		log.Infof("%s Finished %s stage in %s", tag, stage.Label, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func (uc *Backup) notify(ctx context.Context, report domain.BackupReport, tag string) {
	if uc.opts.Notifier == nil {
		return
	}
	if err := uc.opts.Notifier.Notify(ctx, report); err != nil {
		uc.logger.Warnf("%s Notification failed: %v", tag, err)
	}
}
