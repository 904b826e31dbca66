package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/semmidev/dumpship/internal/config"
)

type MongoDBDatabase struct {
	config *config.SourceConfig
	runner Runner
}

func NewMongoDB(cfg *config.SourceConfig, runner Runner) *MongoDBDatabase {
	return &MongoDBDatabase{config: cfg, runner: runner}
}

func (m *MongoDBDatabase) Dump(ctx context.Context, outputDir string) error {
	if err := m.runner.Run(ctx, "mongodump", m.BuildArgs(outputDir), ""); err != nil {
		return fmt.Errorf("mongodump: %w", err)
	}
	return nil
}

// BuildArgs returns the mongodump argument list. Credentials are passed
// through as given; a lone username or password is left for mongodump to reject.
func (m *MongoDBDatabase) BuildArgs(outputDir string) []string {
	args := []string{
		"--host", m.config.Host,
		"--port", strconv.Itoa(m.config.Port),
		"--db", m.config.Database,
		"--out", outputDir,
	}

	if m.config.Username != "" {
		args = append(args, "--username", m.config.Username)
	}
	if m.config.Password != "" {
		args = append(args, "--password", m.config.Password)
	}
	if m.config.AuthDatabase != "" {
		args = append(args, "--authenticationDatabase", m.config.AuthDatabase)
	}

	for _, collection := range m.config.ExcludeCollections {
		args = append(args, "--excludeCollection", collection)
	}

	return args
}

func (m *MongoDBDatabase) GetName() string {
	return m.config.Name
}

func (m *MongoDBDatabase) GetType() string {
	return "mongodb"
}
