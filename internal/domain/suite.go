package domain

// Run returns the run recorded at the given concurrency level, or nil.
func (s *Suite) Run(level int) *RunResult {
	for _, r := range s.Runs {
		if r.Concurrency == level {
			return r
		}
	}
	return nil
}

// Baseline returns the single-worker run.
func (s *Suite) Baseline() *RunResult {
	return s.Run(1)
}

// Speedup calculates total_time(1) / total_time(level).
// Returns 0 when either run is missing or has no measured time.
func (s *Suite) Speedup(level int) float64 {
	base := s.Baseline()
	run := s.Run(level)
	if base == nil || run == nil || base.TotalTime <= 0 || run.TotalTime <= 0 {
		return 0
	}
	return float64(base.TotalTime) / float64(run.TotalTime)
}

// Efficiency calculates speedup(level) / level * 100.
func (s *Suite) Efficiency(level int) float64 {
	if level <= 0 {
		return 0
	}
	return s.Speedup(level) / float64(level) * 100
}

// ComputeMetrics derives the scaling metrics of every run in sweep order.
func (s *Suite) ComputeMetrics() []LevelMetric {
	metrics := make([]LevelMetric, 0, len(s.Runs))
	for _, r := range s.Runs {
		metrics = append(metrics, LevelMetric{
			Concurrency: r.Concurrency,
			TotalTime:   r.TotalTime,
			Speedup:     s.Speedup(r.Concurrency),
			Efficiency:  s.Efficiency(r.Concurrency),
			Status:      r.Status,
		})
	}
	return metrics
}
