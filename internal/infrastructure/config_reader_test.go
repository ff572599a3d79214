package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"filterbench/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, `
input_dir: in
output_dir: out
strategies: [thread-pool-task, process-pool-fixed]
levels: [1, 3]
quiescence: 250ms
brightness_factor: 1.5
workload: sleep
sleep_duration: 2s
thread_global_lock: false
`)

	config, err := NewYAMLConfigReader(zaptest.NewLogger(t)).ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "in", config.InputDir)
	assert.Equal(t, "out", config.OutputDir)
	assert.Equal(t, []int{1, 3}, config.Levels)
	assert.Equal(t, 250*time.Millisecond, config.Quiescence)
	assert.Equal(t, 1.5, config.BrightnessFactor)
	assert.Equal(t, domain.WorkloadSleep, config.Workload)
	assert.Equal(t, 2*time.Second, config.SleepDuration)
	assert.False(t, config.UseThreadLock())

	strategies, err := config.GetStrategies()
	require.NoError(t, err)
	assert.Equal(t, []domain.Strategy{domain.StrategyProcessFixed, domain.StrategyThreadTask}, strategies)

	// Defaults fill what the file leaves out.
	assert.Equal(t, "results/benchmark.json", config.ResultsFile)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, config.Extensions)
}

func TestReadConfigDefaults(t *testing.T) {
	config, err := NewYAMLConfigReader(zaptest.NewLogger(t)).ReadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "images/input", config.InputDir)
	assert.Equal(t, []int{1, 2, 4, 8}, config.Levels)
	assert.Equal(t, time.Second, config.Quiescence)
	assert.Equal(t, 1.3, config.BrightnessFactor)
	assert.Equal(t, domain.WorkloadFilters, config.Workload)
	assert.True(t, config.UseThreadLock())

	strategies, err := config.GetStrategies()
	require.NoError(t, err)
	assert.Equal(t, domain.Strategies, strategies)
}

func TestReadConfigInvalid(t *testing.T) {
	reader := NewYAMLConfigReader(zaptest.NewLogger(t))

	cases := map[string]string{
		"strategy":   "strategies: [green-threads]\n",
		"level":      "levels: [1, 0]\n",
		"workload":   "workload: mining\n",
		"brightness": "brightness_factor: -1\n",
		"quiescence": "quiescence: -1s\n",
		"syntax":     "levels: [1, 2\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reader.ReadConfig(writeConfig(t, content))
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
input_dir: from-file
output_dir: from-file-out
levels: [1, 2]
workload: filters
`)

	config, err := NewYAMLConfigReader(zaptest.NewLogger(t)).Load([]string{
		"-config", path,
		"-input", "from-flag",
		"-levels", "1, 4,8",
		"-strategies", "process-pool-task",
		"-pause", "10ms",
		"-thread-lock=false",
		"-results", "out/report.yaml",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", config.InputDir)
	assert.Equal(t, "from-file-out", config.OutputDir)
	assert.Equal(t, []int{1, 4, 8}, config.Levels)
	assert.Equal(t, []string{"process-pool-task"}, config.Strategies)
	assert.Equal(t, 10*time.Millisecond, config.Quiescence)
	assert.Equal(t, "out/report.yaml", config.ResultsFile)
	assert.False(t, config.UseThreadLock())
}

func TestLoadWithoutDefaultConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	config, err := NewYAMLConfigReader(zaptest.NewLogger(t)).Load([]string{"-workload", "sleep"})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkloadSleep, config.Workload)
	assert.Equal(t, "images/input", config.InputDir)
}

func TestLoadErrors(t *testing.T) {
	reader := NewYAMLConfigReader(zaptest.NewLogger(t))

	_, err := reader.Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeConfig(t, "{}\n")

	_, err = reader.Load([]string{"-config", path, "-levels", "1,two"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = reader.Load([]string{"-config", path, "-no-such-flag"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = reader.Load([]string{"-config", path, "-strategies", "process-pool-fixed,bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
