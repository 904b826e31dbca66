package domain

import "context"

type Database interface {
	Dump(ctx context.Context, outputDir string) error
	GetName() string
	GetType() string
}
