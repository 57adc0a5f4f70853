package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

// RunFunc adapts a func to Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ErrForcedExit is returned by Wait when a second stop signal arrives
// before all tasks stop.
var ErrForcedExit = errors.New("forced exit")

// Runner starts Runnables on goroutines sharing one Context and
// collects their results.
type Runner struct {
	Context context.Context
	Runners []Runnable

	results chan error
	forced  chan struct{}
}

// NewRunner creates a Runner on context.Background.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a Runner on ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{Context: ctx, results: make(chan error, 1), forced: make(chan struct{})}
}

// HandleSignals cancels the Context on SIGINT or SIGTERM. A second
// signal makes Wait give up.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.forced)
	}()
	return r
}

// Go starts runnables.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, task := range runnables {
		name := strconv.Itoa(len(r.Runners))
		if named, ok := task.(Named); ok {
			name = named.Name()
		}
		r.Runners = append(r.Runners, task)
		go func(task Runnable, name string) {
			glog.V(4).Infof("task %s started", name)
			err := task.Run(r.Context)
			glog.V(4).Infof("task %s stopped: %v", name, err)
			r.results <- err
		}(task, name)
	}
	return r
}

// Wait blocks until every task returns and aggregates their errors.
// context.Canceled is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.forced:
			return ErrForcedExit
		case err := <-r.results:
			if !errors.Is(err, context.Canceled) {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs a func which doesn't accept a context.
// onCancel is called only when the context is canceled, and is expected
// to make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RunWithContext is RunWithContextCancel without a cancel callback.
// fn keeps running in the background after cancellation.
func RunWithContext(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RunWithContextCloser runs fn and closes closer on cancel to unblock
// it. The closer stays open when fn returns by itself.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	return RunWithContextCancel(ctx, func() { closer.Close() }, fn)
}
