package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"filterbench/internal/domain"
)

// Benchmark drives executors across the concurrency sweep and aggregates timings.
type Benchmark struct {
	logger    *zap.Logger
	config    *domain.Config
	executors map[domain.Strategy]domain.Executor
	observer  domain.Observer
	pause     func(time.Duration)
	ran       bool
}

func NewBenchmark(logger *zap.Logger, config *domain.Config, observer domain.Observer, executors ...domain.Executor) *Benchmark {
	if observer == nil {
		observer = domain.Observers(nil)
	}
	byStrategy := make(map[domain.Strategy]domain.Executor, len(executors))
	for _, exec := range executors {
		byStrategy[exec.Strategy()] = exec
	}
	return &Benchmark{
		logger:    logger,
		config:    config,
		executors: byStrategy,
		observer:  observer,
		pause:     time.Sleep,
	}
}

// Run executes one {strategy, level} run and blocks until every item settled.
// Successive runs are separated by the configured quiescence pause so that
// worker processes of the previous run have exited.
func (b *Benchmark) Run(strategy domain.Strategy, items []domain.WorkItem, level int) (*domain.RunResult, error) {
	exec, ok := b.executors[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: no executor for %q", domain.ErrUnknownStrategy, strategy)
	}

	if b.ran {
		b.pause(b.config.Quiescence)
	}
	b.ran = true

	b.logger.Info("Starting run",
		zap.String("strategy", string(strategy)),
		zap.Int("workers", level),
		zap.Int("images", len(items)))

	start := time.Now()
	outcomes := exec.Execute(items, level)
	total := time.Since(start)

	result := Summarize(strategy, level, total, outcomes)
	b.observer.Notify(domain.Event{
		Kind:        domain.EventRunFinished,
		Strategy:    strategy,
		Concurrency: level,
		Run:         result,
	})
	return result, nil
}

// RunSuite runs strategy once per configured level, writing outputs under
// the strategy's own directory.
func (b *Benchmark) RunSuite(strategy domain.Strategy, images []string) (*domain.Suite, error) {
	items := BuildItems(images, filepath.Join(b.config.OutputDir, string(strategy)))

	suite := &domain.Suite{Strategy: strategy}
	for _, level := range b.config.Levels {
		run, err := b.Run(strategy, items, level)
		if err != nil {
			return nil, err
		}
		suite.Runs = append(suite.Runs, run)
	}
	suite.Metrics = suite.ComputeMetrics()

	for _, m := range suite.Metrics {
		b.logger.Info("Scaling",
			zap.String("strategy", string(strategy)),
			zap.Int("workers", m.Concurrency),
			zap.Duration("total", m.TotalTime),
			zap.Float64("speedup", m.Speedup),
			zap.Float64("efficiency_pct", m.Efficiency))
	}
	return suite, nil
}

// RunAll benchmarks every configured strategy and assembles the report.
func (b *Benchmark) RunAll(images []string) (*domain.Report, error) {
	if len(images) == 0 {
		return nil, domain.ErrNoImages
	}
	strategies, err := b.config.GetStrategies()
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Workload:  b.config.Workload,
		Images:    len(images),
	}

	for _, strategy := range strategies {
		suite, err := b.RunSuite(strategy, images)
		if err != nil {
			return nil, err
		}
		report.Suites = append(report.Suites, suite)
	}

	for _, level := range b.config.Levels {
		report.Rankings = append(report.Rankings, Rank(report.Suites, level))
	}
	report.Comparisons = Compare(report.Suites, b.config.Levels)
	report.FinishedAt = time.Now()
	return report, nil
}

// Summarize builds the RunResult of one settled batch. The average covers
// successful items only; a run without successes is marked failed with a
// zero average.
func Summarize(strategy domain.Strategy, level int, total time.Duration, outcomes []domain.TaskOutcome) *domain.RunResult {
	result := &domain.RunResult{
		Strategy:    strategy,
		Concurrency: level,
		TotalTime:   total,
		Outcomes:    outcomes,
	}

	workers := make(map[domain.WorkerIdentity]bool)
	pids := make(map[int]bool)
	var durations []float64

	for _, o := range outcomes {
		if o.Worker.PID != 0 {
			workers[o.Worker] = true
			pids[o.Worker.PID] = true
		}
		if o.Succeeded() {
			result.Succeeded++
			durations = append(durations, float64(o.Duration))
		} else {
			result.Failed++
		}
	}
	result.DistinctWorkers = len(workers)
	result.DistinctProcesses = len(pids)

	switch {
	case result.Succeeded == 0:
		result.Status = domain.RunFailed
	case result.Failed > 0:
		result.Status = domain.RunPartial
	default:
		result.Status = domain.RunCompleted
	}

	if len(durations) > 0 {
		result.AverageDuration = time.Duration(stat.Mean(durations, nil))
	}
	return result
}
