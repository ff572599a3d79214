package app

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"filterbench/internal/domain"
)

// Rank orders the strategies' runs at one level by ascending total time, ties
// broken by strategy declaration order. Runs without a single successful item
// rank after every run that produced output.
func Rank(suites []*domain.Suite, level int) domain.Ranking {
	ranking := domain.Ranking{Concurrency: level}
	for _, suite := range suites {
		if run := suite.Run(level); run != nil {
			ranking.Entries = append(ranking.Entries, domain.RankEntry{
				Strategy:  suite.Strategy,
				TotalTime: run.TotalTime,
				Status:    run.Status,
			})
		}
	}

	slices.SortStableFunc(ranking.Entries, func(a, b domain.RankEntry) int {
		if af, bf := a.Status == domain.RunFailed, b.Status == domain.RunFailed; af != bf {
			if af {
				return 1
			}
			return -1
		}
		if a.TotalTime != b.TotalTime {
			if a.TotalTime < b.TotalTime {
				return -1
			}
			return 1
		}
		return a.Strategy.Order() - b.Strategy.Order()
	})

	for i := range ranking.Entries {
		ranking.Entries[i].Rank = i + 1
	}
	return ranking
}

// Compare contrasts the thread strategy against the mean of the process
// strategies at every level where both were measured.
func Compare(suites []*domain.Suite, levels []int) []domain.Comparison {
	var comparisons []domain.Comparison
	for _, level := range levels {
		var processTimes []float64
		var thread *domain.RunResult

		for _, suite := range suites {
			run := suite.Run(level)
			if run == nil {
				continue
			}
			if suite.Strategy.IsProcessBased() {
				processTimes = append(processTimes, float64(run.TotalTime))
			} else if suite.Strategy == domain.StrategyThreadTask {
				thread = run
			}
		}
		if thread == nil || len(processTimes) == 0 {
			continue
		}

		mean := stat.Mean(processTimes, nil)
		c := domain.Comparison{
			Concurrency: level,
			ProcessMean: time.Duration(mean),
			ThreadTime:  thread.TotalTime,
		}
		if mean > 0 {
			c.ThreadSlowdownPercent = (float64(thread.TotalTime) - mean) / mean * 100
		}
		comparisons = append(comparisons, c)
	}
	return comparisons
}
