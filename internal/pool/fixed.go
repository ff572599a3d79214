package pool

import (
	"sync"

	"go.uber.org/zap"

	"filterbench/internal/domain"
)

// FixedProcessPool starts concurrency worker processes up front. Each is driven
// by one goroutine pulling items from a shared queue, so a process handles many
// items in sequence. A process that crashes is replaced before its next item.
type FixedProcessPool struct {
	opts Options
}

func (p *FixedProcessPool) Strategy() domain.Strategy {
	return domain.StrategyProcessFixed
}

func (p *FixedProcessPool) Execute(items []domain.WorkItem, concurrency int) []domain.TaskOutcome {
	if len(items) == 0 {
		return nil
	}
	concurrency = max(concurrency, 1)

	var wg sync.WaitGroup
	queue := make(chan domain.WorkItem)
	results := make(chan domain.TaskOutcome, len(items))

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go p.worker(i, concurrency, queue, results, &wg)
	}

	go func() {
		for _, item := range items {
			queue <- item
		}
		close(queue)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return collect(results, len(items))
}

func (p *FixedProcessPool) worker(id, concurrency int, queue <-chan domain.WorkItem, results chan<- domain.TaskOutcome, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := p.opts.Logger.With(zap.Int("worker", id))

	proc, err := startWorker(p.opts.Command)
	if err != nil {
		logger.Warn("Failed to start worker process", zap.Error(err))
	} else {
		logger.Debug("Worker process started", zap.Int("pid", proc.pid))
	}

	for item := range queue {
		p.opts.started(p.Strategy(), concurrency, item)

		var outcome domain.TaskOutcome
		outcome, proc = dispatch(proc, p.opts.Command, p.opts.request(item))

		results <- outcome
		p.opts.finished(p.Strategy(), concurrency, outcome)
	}

	if proc != nil {
		if err := proc.close(); err != nil {
			logger.Warn("Worker process exited with error", zap.Int("pid", proc.pid), zap.Error(err))
		}
	}
}
