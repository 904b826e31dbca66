package compressor

import (
	"context"
	"fmt"
)

type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string) error
}

// TarCompressor shells out to tar, rooted at the scratch directory so the
// archive holds relative paths.
type TarCompressor struct {
	runner Runner
}

func NewTar(runner Runner) *TarCompressor {
	return &TarCompressor{runner: runner}
}

func (t *TarCompressor) Compress(ctx context.Context, workDir, input, output string) error {
	if err := t.runner.Run(ctx, "tar", []string{"-czf", output, input}, workDir); err != nil {
		return fmt.Errorf("tar: %w", err)
	}
	return nil
}
