// Package boundary supervises a pipeline stage whose failures can surface
// outside its normal return path.
//
// A Boundary has two channels. The unit's returned error flows back to the
// caller as usual. Faults reported through the FaultFunc, at any time, and
// panics raised by the unit are routed to a supervisory goroutine that runs
// the shared cleanup and then escalates. Only the first fault is handled; the
// boundary is disposed after it.
package boundary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
)

// ErrAbandoned is returned by Run when the unit panicked. The panic itself is
// escalated as a LateFault and never surfaces through Run.
var ErrAbandoned = errors.New("stage abandoned after fault")

type LateFault struct {
	Stage string
	Cause error
}

func (f *LateFault) Error() string {
	return fmt.Sprintf("late fault in %s stage: %v", f.Stage, f.Cause)
}

func (f *LateFault) Unwrap() error {
	return f.Cause
}

type FaultFunc func(error)

type Unit func(ctx context.Context, fault FaultFunc) error

type CleanupFunc func() error

type EscalateFunc func(*LateFault)

type Logger interface {
	Errorf(template string, args ...interface{})
}

type Boundary struct {
	stage    string
	cleanup  CleanupFunc
	escalate EscalateFunc
	logger   Logger

	disposed atomic.Bool
	handled  chan struct{}
	once     sync.Once
}

func New(stage string, cleanup CleanupFunc, escalate EscalateFunc, logger Logger) *Boundary {
	return &Boundary{
		stage:    stage,
		cleanup:  cleanup,
		escalate: escalate,
		logger:   logger,
		handled:  make(chan struct{}),
	}
}

// Run executes unit inside the boundary and returns its conventional result.
func (b *Boundary) Run(ctx context.Context, unit Unit) error {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = unit(ctx, b.Report)
	})

	if recovered := catcher.Recovered(); recovered != nil {
		b.Report(recovered.AsError())
		<-b.handled
		return ErrAbandoned
	}

	return err
}

// Report routes err to the boundary channel. It never blocks the caller.
func (b *Boundary) Report(err error) {
	if err == nil {
		return
	}

	if !b.disposed.CompareAndSwap(false, true) {
		b.logger.Errorf("[%s] fault after boundary disposal ignored: %v", b.stage, err)
		return
	}

	go b.handle(err)
}

func (b *Boundary) handle(cause error) {
	defer b.once.Do(func() { close(b.handled) })

	fault := &LateFault{Stage: b.stage, Cause: cause}
	b.logger.Errorf("[%s] %v; forcing cleanup", b.stage, fault)

	if err := b.cleanup(); err != nil {
		b.logger.Errorf("[%s] cleanup after fault failed: %v", b.stage, err)
	}

	b.escalate(fault)
}

// Disposed reports whether a fault has been accepted.
func (b *Boundary) Disposed() bool {
	return b.disposed.Load()
}

// Handled is closed once a fault has been cleaned up and escalated.
func (b *Boundary) Handled() <-chan struct{} {
	return b.handled
}
