// Package task runs a step function on a fixed interval until it is stopped.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/compass/pkg/logger"
)

// Stepper performs one cycle of work.
type Stepper interface {
	Step(ctx context.Context) error
}

// StepFunc adapts a function to Stepper.
type StepFunc func(ctx context.Context) error

// Step implements Stepper.
func (f StepFunc) Step(ctx context.Context) error { return f(ctx) }

// Runner calls a Stepper, then waits for the interval, until the context is
// cancelled or Stop is called. Step errors are logged and the loop continues.
type Runner struct {
	step     Stepper
	interval time.Duration
	name     string
	maxSteps int

	startOnce sync.Once
	stopOnce  sync.Once
	shutdown  chan struct{}
	done      chan struct{}

	logger logger.Logger
}

// New creates a runner for step.
func New(step Stepper, interval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		step:     step,
		interval: interval,
		name:     "task",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named(r.name)
	}
	return r
}

// Start runs the loop in a new goroutine. Calling it again has no effect.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go r.loop(ctx)
	})
}

// Run runs the loop on the calling goroutine and returns when it ends.
func (r *Runner) Run(ctx context.Context) {
	r.startOnce.Do(func() {
		r.loop(ctx)
	})
	<-r.done
}

// Stop signals the loop to end after the current step.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.shutdown) })
}

// Done is closed once the loop has returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Shutdown stops the loop and waits for it, bounded by ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.Stop()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for steps := 0; r.maxSteps == 0 || steps < r.maxSteps; steps++ {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		default:
		}

		if err := r.step.Step(ctx); err != nil {
			r.logger.Error(ctx, "step failed", logger.Int("step", steps+1), logger.Error(err))
		}

		if r.maxSteps > 0 && steps+1 >= r.maxSteps {
			return
		}
		timer.Reset(r.interval)
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case <-timer.C:
		}
	}
}
