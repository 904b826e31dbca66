package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/semmidev/dumpship/internal/config"
	"github.com/semmidev/dumpship/internal/infrastructure/process"
)

type PostgreSQLDatabase struct {
	config *config.SourceConfig
	runner Runner
}

// NewPostgreSQL takes the concrete runner because the password travels in
// PGPASSWORD rather than on the command line.
func NewPostgreSQL(cfg *config.SourceConfig, runner *process.Runner) *PostgreSQLDatabase {
	env := []string{}
	if cfg.Password != "" {
		env = append(env, fmt.Sprintf("PGPASSWORD=%s", cfg.Password))
	}
	if cfg.SSLMode != "" {
		env = append(env, fmt.Sprintf("PGSSLMODE=%s", cfg.SSLMode))
	}
	return &PostgreSQLDatabase{config: cfg, runner: runner.WithEnv(env...)}
}

func (p *PostgreSQLDatabase) Dump(ctx context.Context, outputDir string) error {
	if err := p.runner.Run(ctx, "pg_dump", p.BuildArgs(outputDir), ""); err != nil {
		return fmt.Errorf("pg_dump: %w", err)
	}
	return nil
}

func (p *PostgreSQLDatabase) BuildArgs(outputDir string) []string {
	args := []string{
		fmt.Sprintf("--host=%s", p.config.Host),
		fmt.Sprintf("--port=%d", p.config.Port),
	}

	if p.config.Username != "" {
		args = append(args, fmt.Sprintf("--username=%s", p.config.Username))
	}

	args = append(args, "--format=custom", "--no-password")

	for _, table := range p.config.ExcludeCollections {
		args = append(args, fmt.Sprintf("--exclude-table=%s", table))
	}

	args = append(args,
		fmt.Sprintf("--file=%s", filepath.Join(outputDir, p.config.Database+".dump")),
		p.config.Database,
	)

	return args
}

func (p *PostgreSQLDatabase) GetName() string {
	return p.config.Name
}

func (p *PostgreSQLDatabase) GetType() string {
	return "postgresql"
}
