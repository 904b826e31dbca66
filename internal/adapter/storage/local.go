package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/semmidev/dumpship/internal/domain"
)

type LocalStorage struct {
	basePath string
	prefix   string
}

func NewLocal(basePath, prefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, prefix: prefix}, nil
}

// Upload copies through a temporary file so a partial copy never carries the final name.
func (l *LocalStorage) Upload(ctx context.Context, localPath string, key string, fault domain.FaultFunc) error {
	source, err := openGuarded(localPath, fault)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.settle()

	destPath := l.GetPath(key)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create dest directory: %w", err)
	}

	tmpPath := destPath + ".part"
	dest, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}

	if _, err := io.Copy(dest, contextReader{ctx: ctx, r: source}); err != nil {
		dest.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close dest: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize dest: %w", err)
	}
	return nil
}

func (l *LocalStorage) GetPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(l.ObjectKey(key)))
}

func (l *LocalStorage) ObjectKey(key string) string {
	return path.Join(strings.Trim(l.prefix, "/"), key)
}

func (l *LocalStorage) Name() string {
	return "file://" + l.basePath
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
