package pool

import (
	"sync"

	"go.uber.org/zap"

	"filterbench/internal/domain"
)

// TaskProcessPool submits every item as its own future. A future waits for one
// of concurrency process slots; slots spawn their worker process on first use
// and keep it for later futures.
type TaskProcessPool struct {
	opts Options
}

func (p *TaskProcessPool) Strategy() domain.Strategy {
	return domain.StrategyProcessTask
}

func (p *TaskProcessPool) Execute(items []domain.WorkItem, concurrency int) []domain.TaskOutcome {
	if len(items) == 0 {
		return nil
	}
	concurrency = max(concurrency, 1)

	slots := make(chan *workerProcess, concurrency)
	for n := 0; n < concurrency; n++ {
		slots <- nil
	}

	var wg sync.WaitGroup
	results := make(chan domain.TaskOutcome, len(items))

	for _, item := range items {
		wg.Add(1)
		go func(item domain.WorkItem) {
			defer wg.Done()

			proc := <-slots
			p.opts.started(p.Strategy(), concurrency, item)

			var outcome domain.TaskOutcome
			outcome, proc = dispatch(proc, p.opts.Command, p.opts.request(item))
			slots <- proc

			results <- outcome
			p.opts.finished(p.Strategy(), concurrency, outcome)
		}(item)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := collect(results, len(items))
	p.shutdown(slots, concurrency)
	return outcomes
}

func (p *TaskProcessPool) shutdown(slots chan *workerProcess, concurrency int) {
	for n := 0; n < concurrency; n++ {
		proc := <-slots
		if proc == nil {
			continue
		}
		if err := proc.close(); err != nil {
			p.opts.Logger.Warn("Worker process exited with error", zap.Int("pid", proc.pid), zap.Error(err))
		}
	}
}
