package app

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"filterbench/internal/domain"
	"filterbench/internal/infrastructure"
	"filterbench/internal/pool"
	"filterbench/pkg/filters"
)

const workerEnv = "FILTERBENCH_APP_TEST_WORKER"

func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		if err := pool.Serve(os.Stdin, os.Stdout, newRegistry(zap.NewNop())); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func newRegistry(logger *zap.Logger) pool.Registry {
	return NewTaskRegistry(NewFilterTask(logger,
		infrastructure.NewImageFileReader(logger),
		infrastructure.NewImageFileWriter(logger)))
}

func newExecutors(t *testing.T, config *domain.Config, observer domain.Observer) []domain.Executor {
	t.Helper()
	logger := zaptest.NewLogger(t)
	strategies, err := config.GetStrategies()
	require.NoError(t, err)

	var executors []domain.Executor
	for _, s := range strategies {
		exec, err := pool.NewExecutor(s, pool.Options{
			Task:        config.Workload,
			TaskOptions: config.TaskOptions(),
			Registry:    newRegistry(logger),
			Command: pool.WorkerCommand{
				Path: os.Args[0],
				Args: []string{"-test.run=^$"},
				Env:  []string{workerEnv + "=1"},
			},
			ThreadLock: config.UseThreadLock(),
			Observer:   observer,
			Logger:     logger,
		})
		require.NoError(t, err)
		executors = append(executors, exec)
	}
	return executors
}

func writeTestImage(t *testing.T, path string, seed int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 15), B: uint8(seed * 40), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSummarize(t *testing.T) {
	outcomes := []domain.TaskOutcome{
		domain.Completed("a", 100*time.Millisecond, domain.WorkerIdentity{PID: 10}),
		domain.Completed("b", 300*time.Millisecond, domain.WorkerIdentity{PID: 11}),
		domain.Completed("c", 200*time.Millisecond, domain.WorkerIdentity{PID: 10}),
		domain.Failed("d", fmt.Errorf("broken"), domain.WorkerIdentity{PID: 12}),
	}

	run := Summarize(domain.StrategyProcessFixed, 4, time.Second, outcomes)
	assert.Equal(t, 3, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 200*time.Millisecond, run.AverageDuration)
	assert.Equal(t, 3, run.DistinctWorkers)
	assert.Equal(t, 3, run.DistinctProcesses)
	assert.Equal(t, domain.RunPartial, run.Status)
	assert.Equal(t, time.Second, run.TotalTime)
	assert.Len(t, run.Outcomes, 4)
}

func TestSummarizeThreads(t *testing.T) {
	outcomes := []domain.TaskOutcome{
		domain.Completed("a", time.Millisecond, domain.WorkerIdentity{PID: 7, ThreadID: 1}),
		domain.Completed("b", time.Millisecond, domain.WorkerIdentity{PID: 7, ThreadID: 2}),
		domain.Completed("c", time.Millisecond, domain.WorkerIdentity{PID: 7, ThreadID: 1}),
	}

	run := Summarize(domain.StrategyThreadTask, 2, time.Second, outcomes)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 2, run.DistinctWorkers)
	assert.Equal(t, 1, run.DistinctProcesses)
}

func TestSummarizeAllFailed(t *testing.T) {
	outcomes := []domain.TaskOutcome{
		domain.Failed("a", fmt.Errorf("x"), domain.WorkerIdentity{}),
		domain.Failed("b", fmt.Errorf("y"), domain.WorkerIdentity{}),
	}

	run := Summarize(domain.StrategyProcessTask, 2, 5*time.Millisecond, outcomes)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Zero(t, run.AverageDuration)
	assert.Zero(t, run.DistinctWorkers)
	assert.Equal(t, 2, run.Failed)
}

// fakeExecutor settles every item immediately.
type fakeExecutor struct {
	strategy domain.Strategy
	mu       sync.Mutex
	levels   []int
}

func (f *fakeExecutor) Strategy() domain.Strategy { return f.strategy }

func (f *fakeExecutor) Execute(items []domain.WorkItem, concurrency int) []domain.TaskOutcome {
	f.mu.Lock()
	f.levels = append(f.levels, concurrency)
	f.mu.Unlock()

	outcomes := make([]domain.TaskOutcome, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, domain.Completed(item.ImageID, time.Millisecond, domain.WorkerIdentity{PID: 1}))
	}
	return outcomes
}

func TestQuiescencePauseBetweenRuns(t *testing.T) {
	config := &domain.Config{
		OutputDir:  t.TempDir(),
		Strategies: []string{string(domain.StrategyProcessFixed), string(domain.StrategyThreadTask)},
		Levels:     []int{1, 2, 4, 8},
		Quiescence: 750 * time.Millisecond,
		Workload:   domain.WorkloadSleep,
	}
	fixed := &fakeExecutor{strategy: domain.StrategyProcessFixed}
	thread := &fakeExecutor{strategy: domain.StrategyThreadTask}

	b := NewBenchmark(zaptest.NewLogger(t), config, nil, fixed, thread)
	var pauses []time.Duration
	b.pause = func(d time.Duration) { pauses = append(pauses, d) }

	report, err := b.RunAll([]string{"a.png", "b.png"})
	require.NoError(t, err)

	assert.Len(t, pauses, 7)
	for _, p := range pauses {
		assert.Equal(t, 750*time.Millisecond, p)
	}
	assert.Equal(t, []int{1, 2, 4, 8}, fixed.levels)
	assert.Equal(t, []int{1, 2, 4, 8}, thread.levels)

	require.Len(t, report.Suites, 2)
	assert.Equal(t, domain.StrategyProcessFixed, report.Suites[0].Strategy)
	assert.Equal(t, domain.StrategyThreadTask, report.Suites[1].Strategy)
	assert.Len(t, report.Rankings, 4)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Images)
}

func TestRunSuiteUsesStrategyDestination(t *testing.T) {
	root := t.TempDir()
	config := &domain.Config{OutputDir: root, Levels: []int{1}}

	var seen []domain.WorkItem
	exec := &recordingExecutor{strategy: domain.StrategyProcessTask, seen: &seen}
	b := NewBenchmark(zap.NewNop(), config, nil, exec)

	_, err := b.RunSuite(domain.StrategyProcessTask, []string{"in/a.jpg"})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, filepath.Join(root, "process-pool-task"), seen[0].Destination)
}

type recordingExecutor struct {
	strategy domain.Strategy
	seen     *[]domain.WorkItem
}

func (r *recordingExecutor) Strategy() domain.Strategy { return r.strategy }

func (r *recordingExecutor) Execute(items []domain.WorkItem, _ int) []domain.TaskOutcome {
	*r.seen = append(*r.seen, items...)
	return nil
}

func TestRunUnknownStrategy(t *testing.T) {
	b := NewBenchmark(zap.NewNop(), &domain.Config{}, nil)
	_, err := b.Run(domain.StrategyThreadTask, nil, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)

	_, err = b.RunAll(nil)
	assert.ErrorIs(t, err, domain.ErrNoImages)
}

func TestRunFinishedEvent(t *testing.T) {
	var runs []*domain.RunResult
	observer := domain.ObserverFunc(func(e domain.Event) {
		if e.Kind == domain.EventRunFinished {
			runs = append(runs, e.Run)
		}
	})

	config := &domain.Config{Levels: []int{1, 2}}
	b := NewBenchmark(zap.NewNop(), config, observer, &fakeExecutor{strategy: domain.StrategyThreadTask})
	b.pause = func(time.Duration) {}

	suite, err := b.RunSuite(domain.StrategyThreadTask, []string{"a.png"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Same(t, suite.Runs[0], runs[0])
	assert.Same(t, suite.Runs[1], runs[1])
}

// Eight sleeping items over the sweep on real worker processes:
// total(1) ≈ 8T, total(4) ≈ 2T, speedup(4) ≈ 4.
func TestSleepWorkloadScaling(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	const sleep = 150 * time.Millisecond
	config := &domain.Config{
		OutputDir:     t.TempDir(),
		Strategies:    []string{string(domain.StrategyProcessFixed)},
		Levels:        []int{1, 2, 4, 8},
		Quiescence:    10 * time.Millisecond,
		Workload:      domain.WorkloadSleep,
		SleepDuration: sleep,
	}
	images := make([]string, 8)
	for i := range images {
		images[i] = fmt.Sprintf("img%d.png", i)
	}

	b := NewBenchmark(zaptest.NewLogger(t), config, nil, newExecutors(t, config, nil)...)
	report, err := b.RunAll(images)
	require.NoError(t, err)
	require.Len(t, report.Suites, 1)

	suite := report.Suites[0]
	for _, run := range suite.Runs {
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Len(t, run.Outcomes, 8)
		assert.LessOrEqual(t, run.DistinctProcesses, run.Concurrency)
		assert.InDelta(t, float64(sleep), float64(run.AverageDuration), float64(50*time.Millisecond))
	}

	assert.GreaterOrEqual(t, suite.Run(1).TotalTime, 8*sleep)
	assert.GreaterOrEqual(t, suite.Run(4).TotalTime, 2*sleep)
	assert.Greater(t, suite.Speedup(4), 2.5)
	assert.LessOrEqual(t, suite.Speedup(4), 4.2)
	assert.Greater(t, suite.Efficiency(4), 60.0)

	require.Len(t, suite.Metrics, 4)
	assert.InDelta(t, 1.0, suite.Metrics[0].Speedup, 1e-9)
	assert.InDelta(t, 100.0, suite.Metrics[0].Efficiency, 1e-9)
}

func TestFilterWorkloadEndToEnd(t *testing.T) {
	input := t.TempDir()
	var images []string
	for i := 0; i < 3; i++ {
		path := filepath.Join(input, fmt.Sprintf("food%d.png", i))
		writeTestImage(t, path, i)
		images = append(images, path)
	}
	corrupt := filepath.Join(input, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a png"), 0o644))
	images = append(images, corrupt)

	config := &domain.Config{
		OutputDir:        t.TempDir(),
		Strategies:       []string{string(domain.StrategyProcessTask), string(domain.StrategyThreadTask)},
		Levels:           []int{1, 2},
		Quiescence:       time.Millisecond,
		Workload:         domain.WorkloadFilters,
		BrightnessFactor: filters.DefaultBrightnessFactor,
	}

	var (
		mu       sync.Mutex
		finished int
	)
	observer := domain.ObserverFunc(func(e domain.Event) {
		if e.Kind == domain.EventTaskFinished {
			mu.Lock()
			finished++
			mu.Unlock()
		}
	})

	b := NewBenchmark(zaptest.NewLogger(t), config, observer, newExecutors(t, config, observer)...)
	report, err := b.RunAll(images)
	require.NoError(t, err)
	require.Len(t, report.Suites, 2)
	assert.Equal(t, 2*2*len(images), finished)

	for _, suite := range report.Suites {
		for _, run := range suite.Runs {
			assert.Equal(t, domain.RunPartial, run.Status)
			assert.Equal(t, 3, run.Succeeded)
			require.Equal(t, 1, run.Failed)
			for _, o := range run.Outcomes {
				if !o.Succeeded() {
					assert.Equal(t, corrupt, o.ImageID)
					assert.Contains(t, o.Error, domain.ErrDecode.Error())
				}
			}
		}

		dest := filepath.Join(config.OutputDir, string(suite.Strategy))
		for _, img := range images[:3] {
			for _, f := range filters.Pipeline(0) {
				assert.FileExists(t, OutputPath(dest, img, f.Name))
			}
		}
	}

	// Filter outputs decode back to the input dimensions.
	reader := infrastructure.NewImageFileReader(zap.NewNop())
	edges, err := reader.ReadImage(OutputPath(filepath.Join(config.OutputDir, "thread-pool-task"), images[0], filters.NameEdges))
	require.NoError(t, err)
	assert.Equal(t, 24, edges.Width())
	assert.Equal(t, 16, edges.Height())
	assert.Equal(t, 1, edges.Channels())
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "pizza_blur.jpg"), OutputPath("out", "in/pizza.jpg", "blur"))
	assert.Equal(t, filepath.Join("out", "raw_edges.png"), OutputPath("out", "raw", "edges"))
}
