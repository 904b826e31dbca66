package domain

import (
	"context"
	"time"
)

// BackupJob describes one invocation: what to dump and where the scratch state lives.
type BackupJob struct {
	Source      string
	ArchiveName string
	ScratchDir  string
	DumpDir     string
	ArchivePath string
	StartedAt   time.Time
}

type BackupReport struct {
	Source      string
	ArchiveName string
	Key         string
	Size        int64
	Duration    time.Duration
	Err         error
}

type BackupExecutor interface {
	Execute(ctx context.Context) error
}
