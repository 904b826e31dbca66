package database

import "context"

// Runner executes an external program; process.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, name string, args []string, dir string) error
}
