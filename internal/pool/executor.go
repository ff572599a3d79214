// Package pool dispatches one task per work item under a bounded concurrency
// limit. Three executors share the domain.Executor interface: a fixed pool of
// long-lived worker processes, a task-based pool that submits every item as its
// own future onto lazily spawned worker processes, and an in-process thread pool.
package pool

import (
	"fmt"

	"go.uber.org/zap"

	"filterbench/internal/domain"
)

type Options struct {
	// Task is the registry name of the task run for every item.
	Task        string
	TaskOptions domain.TaskOptions
	// Registry resolves Task for in-process execution.
	Registry Registry
	// Command launches worker processes for the process strategies.
	Command WorkerCommand
	// ThreadLock serializes task execution across all thread-pool workers.
	ThreadLock bool
	Observer   domain.Observer
	Logger     *zap.Logger
}

// NewExecutor builds the executor implementing strategy.
func NewExecutor(strategy domain.Strategy, opts Options) (domain.Executor, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = domain.Observers(nil)
	}

	switch strategy {
	case domain.StrategyProcessFixed:
		return &FixedProcessPool{opts: opts}, nil
	case domain.StrategyProcessTask:
		return &TaskProcessPool{opts: opts}, nil
	case domain.StrategyThreadTask:
		fn, err := opts.Registry.Lookup(opts.Task)
		if err != nil {
			return nil, err
		}
		return &ThreadPool{opts: opts, fn: fn}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, strategy)
	}
}

func (o Options) request(item domain.WorkItem) Request {
	return Request{Task: o.Task, Item: item, Options: o.TaskOptions}
}

func (o Options) started(strategy domain.Strategy, concurrency int, item domain.WorkItem) {
	o.Observer.Notify(domain.Event{
		Kind:        domain.EventTaskStarted,
		Strategy:    strategy,
		Concurrency: concurrency,
		ImageID:     item.ImageID,
	})
}

func (o Options) finished(strategy domain.Strategy, concurrency int, outcome domain.TaskOutcome) {
	o.Observer.Notify(domain.Event{
		Kind:        domain.EventTaskFinished,
		Strategy:    strategy,
		Concurrency: concurrency,
		ImageID:     outcome.ImageID,
		Outcome:     &outcome,
	})
}

func collect(results <-chan domain.TaskOutcome, n int) []domain.TaskOutcome {
	outcomes := make([]domain.TaskOutcome, 0, n)
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
