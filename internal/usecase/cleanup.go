package usecase

import (
	"sync"

	"github.com/semmidev/dumpship/internal/infrastructure/scratch"
	"go.uber.org/multierr"
)

// jobCleanup removes a job's CleanupSet at most once, whichever of the
// normal path or the fault boundary gets there first.
type jobCleanup struct {
	scratch Scratch
	set     scratch.CleanupSet
	logger  Logger
	tag     string

	once sync.Once
	err  error
}

func newJobCleanup(s Scratch, set scratch.CleanupSet, logger Logger, tag string) *jobCleanup {
	return &jobCleanup{scratch: s, set: set, logger: logger, tag: tag}
}

func (c *jobCleanup) Run() error {
	c.once.Do(func() {
		c.logger.Infof("%s Removing scratch state: %v", c.tag, c.set.Paths)
		c.err = c.scratch.Clean(c.set)
		for _, err := range multierr.Errors(c.err) {
			c.logger.Errorf("%s Cleanup failed: %v", c.tag, err)
		}
	})
	return c.err
}

// preClean tolerates leftovers from an interrupted run with the same name.
func (c *jobCleanup) preClean() {
	if err := c.scratch.Clean(c.set); err != nil {
		c.logger.Warnf("%s Pre-clean incomplete: %v", c.tag, err)
	}
}
