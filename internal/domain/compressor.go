package domain

import "context"

type Compressor interface {
	Compress(ctx context.Context, workDir, input, output string) error
}
