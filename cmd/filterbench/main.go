package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"filterbench/internal/app"
	"filterbench/internal/domain"
	"filterbench/internal/infrastructure"
	"filterbench/internal/pool"
)

// workerMode is the first argument a worker process is started with.
const workerMode = "worker"

func main() {
	if len(os.Args) > 1 && os.Args[1] == workerMode {
		os.Exit(runWorker())
	}

	logger := initLogger("info")
	defer logger.Sync()

	configReader := infrastructure.NewYAMLConfigReader(logger)
	config, err := configReader.Load(os.Args[1:])
	if err != nil {
		logger.Fatal("Failed to read config", zap.Error(err))
	}

	logger = initLogger(config.LogLevel, config.LogFile)

	images, err := infrastructure.DiscoverImages(config.InputDir, config.Extensions)
	if err != nil {
		logger.Fatal("Failed to discover images", zap.String("dir", config.InputDir), zap.Error(err))
	}

	command, err := pool.DefaultWorkerCommand()
	if err != nil {
		logger.Fatal("Failed to resolve worker command", zap.Error(err))
	}

	strategies, err := config.GetStrategies()
	if err != nil {
		logger.Fatal("Invalid strategies", zap.Error(err))
	}

	task := app.NewFilterTask(logger,
		infrastructure.NewImageFileReader(logger),
		infrastructure.NewImageFileWriter(logger))
	observer := infrastructure.NewLogObserver(logger)

	executors := make([]domain.Executor, 0, len(strategies))
	for _, strategy := range strategies {
		exec, err := pool.NewExecutor(strategy, pool.Options{
			Task:        config.Workload,
			TaskOptions: config.TaskOptions(),
			Registry:    app.NewTaskRegistry(task),
			Command:     command,
			ThreadLock:  config.UseThreadLock(),
			Observer:    observer,
			Logger:      logger,
		})
		if err != nil {
			logger.Fatal("Failed to create executor", zap.String("strategy", string(strategy)), zap.Error(err))
		}
		executors = append(executors, exec)
	}

	logger.Info("Starting benchmark",
		zap.Int("images", len(images)),
		zap.String("workload", config.Workload),
		zap.Strings("strategies", config.Strategies),
		zap.Ints("levels", config.Levels),
		zap.Duration("quiescence", config.Quiescence))

	benchmark := app.NewBenchmark(logger, config, observer, executors...)
	report, err := benchmark.RunAll(images)
	if err != nil {
		logger.Fatal("Benchmark failed", zap.Error(err))
	}

	for _, ranking := range report.Rankings {
		for _, entry := range ranking.Entries {
			logger.Info("Ranking",
				zap.Int("workers", ranking.Concurrency),
				zap.Int("rank", entry.Rank),
				zap.String("strategy", string(entry.Strategy)),
				zap.Duration("total", entry.TotalTime),
				zap.String("status", string(entry.Status)))
		}
	}
	for _, c := range report.Comparisons {
		logger.Info("Thread strategy against process mean",
			zap.Int("workers", c.Concurrency),
			zap.Duration("process_mean", c.ProcessMean),
			zap.Duration("thread", c.ThreadTime),
			zap.Float64("slowdown_pct", c.ThreadSlowdownPercent))
	}

	if err := infrastructure.NewReportFileWriter(logger).WriteReport(config.ResultsFile, report); err != nil {
		logger.Fatal("Failed to write report", zap.String("file", config.ResultsFile), zap.Error(err))
	}

	logger.Info("Benchmark completed successfully", zap.String("run_id", report.RunID))
}

// runWorker serves task requests from the parent on stdin/stdout until stdin closes.
// Logs go to stderr so they never mix with protocol messages.
func runWorker() int {
	logger := initLogger(os.Getenv("FILTERBENCH_WORKER_LOG_LEVEL"))
	defer logger.Sync()

	task := app.NewFilterTask(logger,
		infrastructure.NewImageFileReader(logger),
		infrastructure.NewImageFileWriter(logger))

	if err := pool.Serve(os.Stdin, os.Stdout, app.NewTaskRegistry(task)); err != nil {
		logger.Error("Worker stopped", zap.Int("pid", os.Getpid()), zap.Error(err))
		return 1
	}
	return 0
}

// initLogger initializes the logger with the specified level and log file name.
// Without a file name the logger writes to stderr.
func initLogger(level string, logfileName ...string) *zap.Logger {
	config := zap.NewProductionConfig()

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	outputPath := []string{"stderr"}
	for _, item := range logfileName {
		if item != "" {
			outputPath = append(outputPath, item)
		}
	}

	config.OutputPaths = outputPath
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "t"
	config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	config.DisableCaller = false

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
