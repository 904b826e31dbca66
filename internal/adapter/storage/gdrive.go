package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/semmidev/dumpship/internal/config"
	"github.com/semmidev/dumpship/internal/domain"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GDriveStorage struct {
	service   *drive.Service
	folderID  string
	prefix    string
	chunkSize int
}

func NewGDrive(ctx context.Context, cfg *config.StorageConfig) (*GDriveStorage, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:   service,
		folderID:  cfg.FolderID,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		chunkSize: int(cfg.PartSize),
	}, nil
}

// Upload sends the archive as a resumable upload in chunkSize pieces. Drive
// has no key hierarchy, so the prefix becomes part of the file name.
func (g *GDriveStorage) Upload(ctx context.Context, localPath string, key string, fault domain.FaultFunc) error {
	body, err := openGuarded(localPath, fault)
	if err != nil {
		return err
	}
	defer body.settle()

	fileMetadata := &drive.File{Name: g.ObjectKey(key)}
	if g.folderID != "" {
		fileMetadata.Parents = []string{g.folderID}
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(body, googleapi.ChunkSize(g.chunkSize)).
		Context(ctx).
		Do()
	return err
}

func (g *GDriveStorage) ObjectKey(key string) string {
	if g.prefix == "" {
		return key
	}
	return strings.ReplaceAll(g.prefix, "/", "_") + "_" + key
}

func (g *GDriveStorage) Name() string {
	return "gdrive://" + g.folderID
}
