package windows

import (
	"context"
	"fmt"
	"sort"
	"time"

	"makersight/internal/config"
	"makersight/internal/pkg/async"
	"makersight/internal/sessions"
)

// MetricWindow is one metric evaluated over one window, overall or for one
// country, with its delta against the preceding window of the same length.
//
// Delta and PctChange are nil when the comparison is not meaningful:
// Delta when the history does not fully cover the previous window
// (PreviousUnavailable), PctChange additionally when the previous value is
// zero. A missing previous period is never treated as zero.
type MetricWindow struct {
	Metric     string    `json:"metric"`
	WindowDays int       `json:"window_days"`
	Country    string    `json:"country,omitempty"`
	PeriodEnd  time.Time `json:"period_end"`

	Current   float64  `json:"current"`
	Previous  *float64 `json:"previous"`
	Delta     *float64 `json:"delta"`
	PctChange *float64 `json:"pct_change"`

	CurrentSessions int `json:"current_sessions"`

	LowConfidence       bool `json:"low_confidence"`
	PreviousUnavailable bool `json:"previous_unavailable"`
}

// Compute evaluates every metric over every configured window length,
// overall and for the top countries by session volume, fanning the
// independent computations out across the pool. Results are sorted by
// window length, metric name and country, so identical inputs always
// produce the identical slice.
//
// coverageStart is the earliest instant the session history covers; windows
// whose previous period starts before it report PreviousUnavailable instead
// of comparing against silently truncated data.
func Compute(ctx context.Context, pool *async.Pool, history []sessions.Record, coverageStart, asOf time.Time, cfg *config.Config) ([]MetricWindow, error) {
	metrics := SessionMetrics(cfg)
	countries := append([]string{""}, TopCountries(history, cfg.TopCountries)...)

	var tasks []async.Task
	for _, days := range cfg.WindowDays {
		for _, metric := range metrics {
			for _, country := range countries {
				days, metric, country := days, metric, country
				name := fmt.Sprintf("%d|%s|%s", days, metric.Name, country)
				tasks = append(tasks, async.Task{
					Name: name,
					Execute: func() (interface{}, error) {
						return computeOne(history, metric, days, country, coverageStart, asOf, cfg), nil
					},
				})
			}
		}
	}

	results := pool.Execute(ctx, tasks)
	if len(results) < len(tasks) {
		return nil, fmt.Errorf("window computation cancelled: %w", ctx.Err())
	}

	windows := make([]MetricWindow, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			return nil, result.Err
		}
		windows = append(windows, result.Data.(MetricWindow))
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].WindowDays != windows[j].WindowDays {
			return windows[i].WindowDays < windows[j].WindowDays
		}
		if windows[i].Metric != windows[j].Metric {
			return windows[i].Metric < windows[j].Metric
		}
		return windows[i].Country < windows[j].Country
	})
	return windows, nil
}

func computeOne(history []sessions.Record, metric Metric, days int, country string, coverageStart, asOf time.Time, cfg *config.Config) MetricWindow {
	pair := WindowPair(asOf, days)

	scoped := history
	if country != "" {
		scoped = filterCountry(history, country)
	}

	current := inPeriod(scoped, pair.Current)
	window := MetricWindow{
		Metric:          metric.Name,
		WindowDays:      days,
		Country:         country,
		PeriodEnd:       asOf,
		Current:         metric.Fn(current),
		CurrentSessions: len(current),
		LowConfidence:   len(current) < cfg.MinWindowSessions,
	}

	if coverageStart.IsZero() || coverageStart.After(pair.Previous.From) {
		window.PreviousUnavailable = true
		return window
	}

	previous := metric.Fn(inPeriod(scoped, pair.Previous))
	delta := window.Current - previous
	window.Previous = &previous
	window.Delta = &delta
	if previous != 0 {
		pct := delta / previous * 100
		window.PctChange = &pct
	}
	return window
}

func filterCountry(records []sessions.Record, country string) []sessions.Record {
	var result []sessions.Record
	for i := range records {
		if records[i].Country == country {
			result = append(result, records[i])
		}
	}
	return result
}

// inPeriod selects sessions whose first event falls inside the period.
func inPeriod(records []sessions.Record, p Period) []sessions.Record {
	var result []sessions.Record
	for i := range records {
		if p.Contains(records[i].FirstEventTime) {
			result = append(result, records[i])
		}
	}
	return result
}

// TopCountries returns the n most common session countries, ties broken
// alphabetically. Empty country values are excluded.
func TopCountries(records []sessions.Record, n int) []string {
	counts := make(map[string]int)
	for i := range records {
		if records[i].Country != "" {
			counts[records[i].Country]++
		}
	}

	countries := make([]string, 0, len(counts))
	for c := range counts {
		countries = append(countries, c)
	}
	sort.Slice(countries, func(i, j int) bool {
		if counts[countries[i]] != counts[countries[j]] {
			return counts[countries[i]] > counts[countries[j]]
		}
		return countries[i] < countries[j]
	})
	if len(countries) > n {
		countries = countries[:n]
	}
	return countries
}

// CoverageStart returns the earliest first-event time in the history, or a
// zero time for an empty history.
func CoverageStart(records []sessions.Record) time.Time {
	var earliest time.Time
	for i := range records {
		if earliest.IsZero() || records[i].FirstEventTime.Before(earliest) {
			earliest = records[i].FirstEventTime
		}
	}
	return earliest
}
