// Package snapshot assembles one run's metrics into an immutable JSON
// document for the downstream report layers.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"makersight/internal/ads"
	"makersight/internal/config"
	"makersight/internal/engagement"
	"makersight/internal/events"
	"makersight/internal/lift"
	"makersight/internal/searchconsole"
	"makersight/internal/sessions"
	"makersight/internal/windows"
)

// CountryStat is one country's session count with its display name resolved.
type CountryStat struct {
	Country  string `json:"country"`
	Sessions int    `json:"sessions"`
}

// TermStat is one search term or FAQ question with its occurrence count.
type TermStat struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Diagnostics surfaces the data-quality counters of the run.
type Diagnostics struct {
	RejectedEvents     int `json:"rejected_events"`
	DeduplicatedEvents int `json:"deduplicated_events"`
}

// Snapshot is the complete output of one reporting run. Every field is
// always present; statistical insufficiency shows up as tagged flags inside
// the values, never as missing sections.
type Snapshot struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	AsOf        time.Time `json:"as_of"`

	TotalSessions int         `json:"total_sessions"`
	LevelCounts   map[int]int `json:"level_counts"`

	Lift lift.Report `json:"lift"`

	SessionWindows     []windows.MetricWindow `json:"session_windows"`
	AdsWindows         []ads.Window           `json:"ads_windows"`
	SearchWindows      []searchconsole.Window `json:"search_windows"`
	DailySessions      []windows.DailyCount   `json:"daily_sessions"`
	DailySessionsTrend float64                `json:"daily_sessions_trend"`

	TopCountries    []CountryStat `json:"top_countries"`
	TopSearchTerms  []TermStat    `json:"top_search_terms"`
	TopFAQQuestions []TermStat    `json:"top_faq_questions"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// BuildInput carries everything one run computed, ready for assembly.
type BuildInput struct {
	AsOf    time.Time
	History []sessions.Record
	Events  []events.Event

	Lift           lift.Report
	SessionWindows []windows.MetricWindow
	AdsWindows     []ads.Window
	SearchWindows  []searchconsole.Window

	Diagnostics Diagnostics
}

// Build assembles the snapshot. The level-count map always contains all six
// levels so a reader never has to distinguish "absent" from "zero".
func Build(input BuildInput, cfg *config.Config) *Snapshot {
	levelCounts := make(map[int]int, 6)
	for level, count := range engagement.LevelCounts(input.History, cfg) {
		levelCounts[int(level)] = count
	}

	dailyFrom := input.AsOf.AddDate(0, 0, -30)
	daily := windows.DailyCounts(input.History, dailyFrom, input.AsOf)

	return &Snapshot{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		AsOf:        input.AsOf,

		TotalSessions: len(input.History),
		LevelCounts:   levelCounts,

		Lift: input.Lift,

		SessionWindows:     input.SessionWindows,
		AdsWindows:         input.AdsWindows,
		SearchWindows:      input.SearchWindows,
		DailySessions:      daily,
		DailySessionsTrend: windows.Trend(daily),

		TopCountries:    topCountries(input.History, cfg.TopCountries),
		TopSearchTerms:  topParams(input.Events, events.EventSiteSearch, events.ParamSearchTerm, cfg.TopTerms),
		TopFAQQuestions: topParams(input.Events, events.EventFAQClick, events.ParamFAQQuestion, cfg.TopTerms),

		Diagnostics: input.Diagnostics,
	}
}

// topCountries resolves country codes to display names. Unrecognized codes
// fall back to upper-cased as-is; the unknown bucket stays "Unknown".
func topCountries(history []sessions.Record, n int) []CountryStat {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := []CountryStat{}
	for _, code := range windows.TopCountries(history, n) {
		count := 0
		for i := range history {
			if history[i].Country == code {
				count++
			}
		}

		name := code
		if code == events.UnknownCountry {
			name = "Unknown"
		} else if country, err := countries.FindCountryByAlpha(code); err == nil {
			name = country.Name.Common
		} else if country, err := countries.FindCountryByName(code); err == nil {
			name = country.Name.Common
		} else {
			name = caser.String(code)
		}

		result = append(result, CountryStat{Country: name, Sessions: count})
	}
	return result
}

// topParams counts the values of one event parameter across events of one
// name and returns the n most common, ties broken alphabetically.
func topParams(rawEvents []events.Event, eventName, paramKey string, n int) []TermStat {
	counts := make(map[string]int)
	for i := range rawEvents {
		if rawEvents[i].Name != eventName {
			continue
		}
		if value := rawEvents[i].Param(paramKey); value != "" {
			counts[value]++
		}
	}

	result := make([]TermStat, 0, len(counts))
	for term, count := range counts {
		result = append(result, TermStat{Term: term, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Term < result[j].Term
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// WriteFile serializes the snapshot and replaces the output file in one
// rename, so a crashed run never leaves a half-written snapshot behind.
func (s *Snapshot) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}
