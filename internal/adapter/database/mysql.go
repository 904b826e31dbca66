package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/semmidev/dumpship/internal/config"
)

type MySQLDatabase struct {
	config *config.SourceConfig
	runner Runner
}

func NewMySQL(cfg *config.SourceConfig, runner Runner) *MySQLDatabase {
	return &MySQLDatabase{config: cfg, runner: runner}
}

func (m *MySQLDatabase) Dump(ctx context.Context, outputDir string) error {
	if err := m.runner.Run(ctx, "mysqldump", m.BuildArgs(outputDir), ""); err != nil {
		return fmt.Errorf("mysqldump: %w", err)
	}
	return nil
}

// BuildArgs expects outputDir to exist; mysqldump only writes a single file.
func (m *MySQLDatabase) BuildArgs(outputDir string) []string {
	args := []string{
		fmt.Sprintf("--host=%s", m.config.Host),
		fmt.Sprintf("--port=%d", m.config.Port),
	}

	if m.config.Username != "" {
		args = append(args, fmt.Sprintf("--user=%s", m.config.Username))
	}
	if m.config.Password != "" {
		args = append(args, fmt.Sprintf("--password=%s", m.config.Password))
	}

	args = append(args,
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
		"--events",
	)

	for _, table := range m.config.ExcludeCollections {
		args = append(args, fmt.Sprintf("--ignore-table=%s.%s", m.config.Database, table))
	}

	args = append(args,
		fmt.Sprintf("--result-file=%s", filepath.Join(outputDir, m.config.Database+".sql")),
		m.config.Database,
	)

	return args
}

func (m *MySQLDatabase) GetName() string {
	return m.config.Name
}

func (m *MySQLDatabase) GetType() string {
	return "mysql"
}
