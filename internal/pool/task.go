package pool

import (
	"fmt"
	"time"

	"filterbench/internal/domain"
)

// TaskFunc processes one work item. A returned error or a panic fails the item.
type TaskFunc func(item domain.WorkItem, opts domain.TaskOptions) error

// Registry maps task names to implementations. The parent and its worker
// processes must build identical registries.
type Registry map[string]TaskFunc

func (r Registry) Register(name string, fn TaskFunc) {
	r[name] = fn
}

func (r Registry) Lookup(name string) (TaskFunc, error) {
	fn, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTask, name)
	}
	return fn, nil
}

// SleepTask holds its worker for opts.SleepDuration without using the CPU.
func SleepTask(_ domain.WorkItem, opts domain.TaskOptions) error {
	time.Sleep(opts.SleepDuration)
	return nil
}

// runTask executes fn and measures it, converting panics into errors.
func runTask(fn TaskFunc, item domain.WorkItem, opts domain.TaskOptions) (elapsed time.Duration, err error) {
	start := time.Now()
	defer func() {
		elapsed = time.Since(start)
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &domain.TaskError{ImageID: item.ImageID, Err: err}
		}
	}()

	return 0, fn(item, opts)
}

// execute runs fn for one request and settles it into an outcome.
func execute(fn TaskFunc, req Request, worker domain.WorkerIdentity) domain.TaskOutcome {
	elapsed, err := runTask(fn, req.Item, req.Options)
	if err != nil {
		return domain.Failed(req.Item.ImageID, err, worker)
	}
	return domain.Completed(req.Item.ImageID, elapsed, worker)
}
