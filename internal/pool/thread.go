package pool

import (
	"os"
	"runtime"
	"sync"

	"filterbench/internal/domain"
)

// executionLock is shared by every ThreadPool in the process. While held, no
// other thread-pool worker runs task code.
var executionLock sync.Mutex

// ThreadPool runs tasks on concurrency OS threads inside the current process.
// With ThreadLock set, task bodies are serialized behind executionLock, so
// adding threads adds no parallelism to the computation.
type ThreadPool struct {
	opts Options
	fn   TaskFunc
}

func (p *ThreadPool) Strategy() domain.Strategy {
	return domain.StrategyThreadTask
}

func (p *ThreadPool) Execute(items []domain.WorkItem, concurrency int) []domain.TaskOutcome {
	if len(items) == 0 {
		return nil
	}
	concurrency = max(concurrency, 1)

	var wg sync.WaitGroup
	queue := make(chan domain.WorkItem, len(items))
	results := make(chan domain.TaskOutcome, len(items))

	for _, item := range items {
		queue <- item
	}
	close(queue)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go p.worker(i+1, concurrency, queue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return collect(results, len(items))
}

func (p *ThreadPool) worker(id, concurrency int, queue <-chan domain.WorkItem, results chan<- domain.TaskOutcome, wg *sync.WaitGroup) {
	defer wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	worker := domain.WorkerIdentity{PID: os.Getpid(), ThreadID: id}

	for item := range queue {
		p.opts.started(p.Strategy(), concurrency, item)

		if p.opts.ThreadLock {
			executionLock.Lock()
		}
		outcome := execute(p.fn, p.opts.request(item), worker)
		if p.opts.ThreadLock {
			executionLock.Unlock()
		}

		results <- outcome
		p.opts.finished(p.Strategy(), concurrency, outcome)
	}
}
