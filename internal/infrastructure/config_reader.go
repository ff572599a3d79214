package infrastructure

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"filterbench/internal/domain"
)

const DefaultConfigPath = "config.yaml"

type YAMLConfigReader struct {
	logger *zap.Logger
}

func NewYAMLConfigReader(logger *zap.Logger) *YAMLConfigReader {
	return &YAMLConfigReader{logger: logger}
}

// ReadConfig reads the YAML file at path and applies defaults.
func (r *YAMLConfigReader) ReadConfig(path string) (*domain.Config, error) {
	config, err := r.readFile(path)
	if err != nil {
		return nil, err
	}

	r.setDefaults(config)
	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Load parses command-line args, reads the file named by -config and lets every
// flag that was set explicitly override the file value.
func (r *YAMLConfigReader) Load(args []string) (*domain.Config, error) {
	flags := flag.NewFlagSet("filterbench", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	configPath := flags.String("config", DefaultConfigPath, "Path to config file")
	inputDir := flags.String("input", "", "Directory with input images")
	outputDir := flags.String("output", "", "Root directory for filtered images")
	results := flags.String("results", "", "Report file (.json or .yaml)")
	strategies := flags.String("strategies", "", "Comma-separated strategies to benchmark")
	levels := flags.String("levels", "", "Comma-separated worker counts")
	pause := flags.Duration("pause", 0, "Quiescence pause between runs")
	brightness := flags.Float64("brightness", 0, "Brightness factor")
	workload := flags.String("workload", "", "Workload: filters or sleep")
	sleep := flags.Duration("sleep", 0, "Per-item duration of the sleep workload")
	threadLock := flags.Bool("thread-lock", true, "Serialize task execution in the thread strategy")
	logLevel := flags.String("log-level", "", "Log level")
	logFile := flags.String("log-file", "", "Log file")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	explicit := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	config, err := r.readFile(*configPath)
	if err != nil {
		// The default config file is optional; an explicitly named one is not.
		if !errors.Is(err, fs.ErrNotExist) || explicit["config"] {
			return nil, err
		}
		r.logger.Info("Config file not found, using defaults", zap.String("path", *configPath))
		config = &domain.Config{}
	}

	for name := range explicit {
		switch name {
		case "input":
			config.InputDir = *inputDir
		case "output":
			config.OutputDir = *outputDir
		case "results":
			config.ResultsFile = *results
		case "strategies":
			config.Strategies = splitList(*strategies)
		case "levels":
			parsed, err := parseLevels(*levels)
			if err != nil {
				return nil, err
			}
			config.Levels = parsed
		case "pause":
			config.Quiescence = *pause
		case "brightness":
			config.BrightnessFactor = *brightness
		case "workload":
			config.Workload = *workload
		case "sleep":
			config.SleepDuration = *sleep
		case "thread-lock":
			config.ThreadGlobalLock = threadLock
		case "log-level":
			config.LogLevel = *logLevel
		case "log-file":
			config.LogFile = *logFile
		}
	}

	r.setDefaults(config)
	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (r *YAMLConfigReader) readFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config domain.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}
	return &config, nil
}

func (r *YAMLConfigReader) setDefaults(config *domain.Config) {
	if config.InputDir == "" {
		config.InputDir = "images/input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "images/output"
	}
	if config.ResultsFile == "" {
		config.ResultsFile = "results/benchmark.json"
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".jpg", ".jpeg", ".png"}
	}
	if len(config.Strategies) == 0 {
		for _, s := range domain.Strategies {
			config.Strategies = append(config.Strategies, string(s))
		}
	}
	if len(config.Levels) == 0 {
		config.Levels = []int{1, 2, 4, 8}
	}
	// Runs are always separated; a zero pause falls back to the default.
	if config.Quiescence == 0 {
		config.Quiescence = time.Second
	}
	if config.BrightnessFactor == 0 {
		config.BrightnessFactor = 1.3
	}
	if config.Workload == "" {
		config.Workload = domain.WorkloadFilters
	}
	if config.SleepDuration == 0 {
		config.SleepDuration = 100 * time.Millisecond
	}
	if config.ThreadGlobalLock == nil {
		enabled := true
		config.ThreadGlobalLock = &enabled
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

func validate(config *domain.Config) error {
	if _, err := config.GetStrategies(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	for _, level := range config.Levels {
		if level <= 0 {
			return fmt.Errorf("%w: worker count must be positive, got %d", domain.ErrInvalidConfig, level)
		}
	}
	if config.Quiescence < 0 {
		return fmt.Errorf("%w: negative quiescence %s", domain.ErrInvalidConfig, config.Quiescence)
	}
	if config.BrightnessFactor < 0 {
		return fmt.Errorf("%w: negative brightness factor %g", domain.ErrInvalidConfig, config.BrightnessFactor)
	}
	switch config.Workload {
	case domain.WorkloadFilters, domain.WorkloadSleep:
	default:
		return fmt.Errorf("%w: unknown workload %q", domain.ErrInvalidConfig, config.Workload)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevels(s string) ([]int, error) {
	var levels []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: worker count %q: %v", domain.ErrInvalidConfig, part, err)
		}
		levels = append(levels, n)
	}
	return levels, nil
}
