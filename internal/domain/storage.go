package domain

import "context"

// FaultFunc receives errors that surface after an Upload call has returned.
type FaultFunc func(error)

type Storage interface {
	Upload(ctx context.Context, localPath string, key string, fault FaultFunc) error
	// ObjectKey is where Upload stores key once the target's prefix is applied.
	ObjectKey(key string) string
	Name() string
}

type Notifier interface {
	Notify(ctx context.Context, report BackupReport) error
}
