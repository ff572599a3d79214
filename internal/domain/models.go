package domain

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the benchmark configuration
type Config struct {
	InputDir         string        `yaml:"input_dir"`
	OutputDir        string        `yaml:"output_dir"`
	ResultsFile      string        `yaml:"results_file"`
	Extensions       []string      `yaml:"extensions"`
	Strategies       []string      `yaml:"strategies"`
	Levels           []int         `yaml:"levels"`
	Quiescence       time.Duration `yaml:"quiescence"`
	BrightnessFactor float64       `yaml:"brightness_factor"`
	Workload         string        `yaml:"workload"`
	SleepDuration    time.Duration `yaml:"sleep_duration"`
	ThreadGlobalLock *bool         `yaml:"thread_global_lock"`
	LogLevel         string        `yaml:"log_level"`
	LogFile          string        `yaml:"log_file"`
}

// GetStrategies resolves the configured strategy names, keeping declaration order.
func (c *Config) GetStrategies() ([]Strategy, error) {
	selected := make(map[Strategy]bool, len(c.Strategies))
	for _, name := range c.Strategies {
		s, err := ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		selected[s] = true
	}

	var out []Strategy
	for _, s := range Strategies {
		if selected[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

// UseThreadLock reports whether the thread strategy serializes task execution.
func (c *Config) UseThreadLock() bool {
	return c.ThreadGlobalLock == nil || *c.ThreadGlobalLock
}

// TaskOptions returns the per-task parameters shipped to every worker.
func (c *Config) TaskOptions() TaskOptions {
	return TaskOptions{
		BrightnessFactor: c.BrightnessFactor,
		SleepDuration:    c.SleepDuration,
	}
}

// Strategy names an execution strategy of the worker pool.
type Strategy string

const (
	StrategyProcessFixed Strategy = "process-pool-fixed"
	StrategyProcessTask  Strategy = "process-pool-task"
	StrategyThreadTask   Strategy = "thread-pool-task"
)

// Strategies lists every strategy in declaration order. Ranking ties are broken by this order.
var Strategies = []Strategy{StrategyProcessFixed, StrategyProcessTask, StrategyThreadTask}

func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Order returns the declaration index of the strategy, or len(Strategies) when unknown.
func (s Strategy) Order() int {
	for i, known := range Strategies {
		if known == s {
			return i
		}
	}
	return len(Strategies)
}

// IsProcessBased reports whether tasks run in isolated worker processes.
func (s Strategy) IsProcessBased() bool {
	return s == StrategyProcessFixed || s == StrategyProcessTask
}

// Workload names select the task run for every item.
const (
	WorkloadFilters = "filters"
	WorkloadSleep   = "sleep"
)

// WorkItem describes one image to process and where its outputs go.
type WorkItem struct {
	ImageID     string `json:"image_id" yaml:"image_id"`
	Destination string `json:"destination" yaml:"destination"`
}

// TaskOptions carries workload parameters that are identical for every item of a run.
type TaskOptions struct {
	BrightnessFactor float64       `json:"brightness_factor,omitempty" yaml:"brightness_factor,omitempty"`
	SleepDuration    time.Duration `json:"sleep_duration,omitempty" yaml:"sleep_duration,omitempty"`
}

// WorkerIdentity identifies where a task ran. ThreadID is set only for in-process execution.
type WorkerIdentity struct {
	PID      int `json:"pid" yaml:"pid"`
	ThreadID int `json:"thread_id,omitempty" yaml:"thread_id,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
)

// TaskOutcome is the settled result of one WorkItem.
type TaskOutcome struct {
	ImageID  string         `json:"image_id" yaml:"image_id"`
	Status   OutcomeStatus  `json:"status" yaml:"status"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
	Worker   WorkerIdentity `json:"worker" yaml:"worker"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func (o TaskOutcome) Succeeded() bool {
	return o.Status == OutcomeCompleted
}

// Completed builds a success outcome.
func Completed(imageID string, d time.Duration, worker WorkerIdentity) TaskOutcome {
	return TaskOutcome{ImageID: imageID, Status: OutcomeCompleted, Duration: d, Worker: worker}
}

// Failed builds a failure outcome.
func Failed(imageID string, err error, worker WorkerIdentity) TaskOutcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return TaskOutcome{ImageID: imageID, Status: OutcomeFailed, Worker: worker, Error: msg}
}

type RunStatus string

const (
	// RunCompleted means every item succeeded.
	RunCompleted RunStatus = "completed"
	// RunPartial means at least one item succeeded and at least one failed.
	RunPartial RunStatus = "partial"
	// RunFailed means no item succeeded; AverageDuration is zero and meaningless.
	RunFailed RunStatus = "failed"
)

// RunResult aggregates one {strategy, concurrency} execution.
type RunResult struct {
	Strategy          Strategy      `json:"strategy" yaml:"strategy"`
	Concurrency       int           `json:"concurrency" yaml:"concurrency"`
	TotalTime         time.Duration `json:"total_time" yaml:"total_time"`
	AverageDuration   time.Duration `json:"average_duration" yaml:"average_duration"`
	Succeeded         int           `json:"succeeded" yaml:"succeeded"`
	Failed            int           `json:"failed" yaml:"failed"`
	DistinctWorkers   int           `json:"distinct_workers" yaml:"distinct_workers"`
	DistinctProcesses int           `json:"distinct_processes" yaml:"distinct_processes"`
	Status            RunStatus     `json:"status" yaml:"status"`
	Outcomes          []TaskOutcome `json:"outcomes" yaml:"outcomes"`
}

// Suite is the ordered sequence of runs of one strategy over the concurrency sweep.
type Suite struct {
	Strategy Strategy      `json:"strategy" yaml:"strategy"`
	Runs     []*RunResult  `json:"runs" yaml:"runs"`
	Metrics  []LevelMetric `json:"metrics" yaml:"metrics"`
}

// LevelMetric holds the derived scaling metrics of one run in a suite.
type LevelMetric struct {
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
	TotalTime   time.Duration `json:"total_time" yaml:"total_time"`
	Speedup     float64       `json:"speedup" yaml:"speedup"`
	Efficiency  float64       `json:"efficiency" yaml:"efficiency"`
	Status      RunStatus     `json:"status" yaml:"status"`
}

// RankEntry is one strategy's position at a fixed concurrency level.
type RankEntry struct {
	Rank      int           `json:"rank" yaml:"rank"`
	Strategy  Strategy      `json:"strategy" yaml:"strategy"`
	TotalTime time.Duration `json:"total_time" yaml:"total_time"`
	Status    RunStatus     `json:"status" yaml:"status"`
}

type Ranking struct {
	Concurrency int         `json:"concurrency" yaml:"concurrency"`
	Entries     []RankEntry `json:"entries" yaml:"entries"`
}

// Comparison contrasts the thread strategy with the mean of the process strategies at one level.
type Comparison struct {
	Concurrency           int           `json:"concurrency" yaml:"concurrency"`
	ProcessMean           time.Duration `json:"process_mean" yaml:"process_mean"`
	ThreadTime            time.Duration `json:"thread_time" yaml:"thread_time"`
	ThreadSlowdownPercent float64       `json:"thread_slowdown_percent" yaml:"thread_slowdown_percent"`
}

// Report is the serializable output of a complete benchmark.
type Report struct {
	RunID       string       `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time    `json:"finished_at" yaml:"finished_at"`
	Workload    string       `json:"workload" yaml:"workload"`
	Images      int          `json:"images" yaml:"images"`
	Suites      []*Suite     `json:"suites" yaml:"suites"`
	Rankings    []Ranking    `json:"rankings" yaml:"rankings"`
	Comparisons []Comparison `json:"comparisons,omitempty" yaml:"comparisons,omitempty"`
}

type EventKind string

const (
	EventTaskStarted  EventKind = "task-started"
	EventTaskFinished EventKind = "task-finished"
	EventRunFinished  EventKind = "run-finished"
)

// Event is emitted to observers while a benchmark progresses.
type Event struct {
	Kind        EventKind
	Strategy    Strategy
	Concurrency int
	ImageID     string
	Outcome     *TaskOutcome
	Run         *RunResult
}

var (
	ErrInvalidBuffer   = errors.New("invalid pixel buffer")
	ErrDecode          = errors.New("decode failed")
	ErrEncode          = errors.New("encode failed")
	ErrTaskFailed      = errors.New("task failed")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrUnknownTask     = errors.New("unknown task")
	ErrNoImages        = errors.New("no images found")
	ErrInvalidConfig   = errors.New("invalid config")
)

// TaskError wraps a task failure with the image it belongs to.
type TaskError struct {
	ImageID string
	Err     error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.ImageID, e.Err)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrTaskFailed, e.Err}
}
