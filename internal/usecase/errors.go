package usecase

import (
	"fmt"

	"github.com/semmidev/dumpship/internal/infrastructure/process"
)

const (
	StageDump     = "dump"
	StageCompress = "compress"
	StageUpload   = "upload"
)

// StageError is the job error for a failed stage. A dump or compress failure
// wraps a process.ExitError; an upload failure wraps the storage client error.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) ExitCode() (int, bool) {
	return process.ExitCode(e.Err)
}
