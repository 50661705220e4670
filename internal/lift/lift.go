// Package lift measures how much more prevalent a behavioral signal is in
// high-intent sessions than in the rest of the traffic.
package lift

import (
	"sort"

	"makersight/internal/config"
	"makersight/internal/engagement"
	"makersight/internal/sessions"
)

// Signal is a named boolean predicate over a session record.
type Signal struct {
	Name string
	Test func(rec *sessions.Record) bool
}

// Result is the lift measurement for one signal. Ratio is nil when the
// signal never appears in low-intent sessions: the ratio is undefined there,
// and an undefined ratio is reported as such rather than as infinity or a
// capped sentinel.
type Result struct {
	Signal string `json:"signal"`

	HighPrevalence float64  `json:"high_prevalence"`
	LowPrevalence  float64  `json:"low_prevalence"`
	Ratio          *float64 `json:"lift_ratio"`

	HighCount int `json:"high_count"`
	LowCount  int `json:"low_count"`

	// LowConfidence marks signals observed fewer than MinSupport times in
	// the smaller partition. They stay in the report.
	LowConfidence bool `json:"low_confidence"`
}

// Report is the output of one lift computation. When the high-intent
// partition is empty there is nothing to compare against, so
// InsufficientData is set and Results stays empty.
type Report struct {
	InsufficientData bool `json:"insufficient_data"`

	HighIntentSessions int `json:"high_intent_sessions"`
	LowIntentSessions  int `json:"low_intent_sessions"`

	Results []Result `json:"results"`

	Ranking        []FeatureWeight `json:"feature_ranking,omitempty"`
	RankingSkipped string          `json:"ranking_skipped,omitempty"`
}

// BuiltinSignals are the behavioral predicates tracked for every run.
func BuiltinSignals() []Signal {
	return []Signal{
		{Name: "faq_interaction", Test: func(r *sessions.Record) bool { return r.FAQClicks >= 1 }},
		{Name: "photo_gallery_click", Test: func(r *sessions.Record) bool { return r.GalleryClicks >= 1 }},
		{Name: "site_search", Test: func(r *sessions.Record) bool { return r.SiteSearches >= 1 }},
		{Name: "scroll_depth", Test: func(r *sessions.Record) bool { return r.ScrollEvents >= 1 }},
		{Name: "multi_page_visit", Test: func(r *sessions.Record) bool { return r.PageViews >= 3 }},
		{Name: "product_detail_view", Test: func(r *sessions.Record) bool { return r.ProductsViewed >= 1 }},
	}
}

// CategoricalSignals derives one-hot signals from the data itself: the top n
// values of country, device category and traffic medium each become a
// membership predicate. Ties break alphabetically so runs are deterministic.
func CategoricalSignals(records []sessions.Record, topN int) []Signal {
	dims := []struct {
		prefix string
		value  func(r *sessions.Record) string
	}{
		{"country", func(r *sessions.Record) string { return r.Country }},
		{"device", func(r *sessions.Record) string { return r.DeviceCategory }},
		{"medium", func(r *sessions.Record) string { return r.TrafficMedium }},
	}

	var result []Signal
	for _, dim := range dims {
		counts := make(map[string]int)
		for i := range records {
			if v := dim.value(&records[i]); v != "" {
				counts[v]++
			}
		}
		for _, value := range topValues(counts, topN) {
			value := value
			extract := dim.value
			result = append(result, Signal{
				Name: dim.prefix + ":" + value,
				Test: func(r *sessions.Record) bool { return extract(r) == value },
			})
		}
	}
	return result
}

func topValues(counts map[string]int, n int) []string {
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		return values[i] < values[j]
	})
	if len(values) > n {
		values = values[:n]
	}
	return values
}

// Compute partitions the sessions by the high-intent cutoff and measures
// each signal's prevalence on both sides. The partition is exhaustive and
// disjoint: every session lands in exactly one side.
func Compute(records []sessions.Record, signals []Signal, cfg *config.Config) Report {
	var high, low []sessions.Record
	for i := range records {
		level := engagement.Classify(&records[i], cfg)
		if engagement.IsHighIntent(level, cfg) {
			high = append(high, records[i])
		} else {
			low = append(low, records[i])
		}
	}

	report := Report{
		HighIntentSessions: len(high),
		LowIntentSessions:  len(low),
	}

	if len(high) == 0 {
		report.InsufficientData = true
		return report
	}

	for _, sig := range signals {
		highCount := countMatching(high, sig)
		lowCount := countMatching(low, sig)

		// Support is the number of sessions satisfying the signal in the
		// smaller partition
		support := highCount
		if len(low) < len(high) {
			support = lowCount
		}

		r := Result{
			Signal:         sig.Name,
			HighCount:      highCount,
			LowCount:       lowCount,
			HighPrevalence: prevalence(highCount, len(high)),
			LowPrevalence:  prevalence(lowCount, len(low)),
			LowConfidence:  support < cfg.MinSupport,
		}
		if r.LowPrevalence > 0 {
			ratio := r.HighPrevalence / r.LowPrevalence
			r.Ratio = &ratio
		}
		report.Results = append(report.Results, r)
	}

	report.Ranking, report.RankingSkipped = rankFeatures(records, signals, cfg)
	return report
}

func countMatching(records []sessions.Record, sig Signal) int {
	n := 0
	for i := range records {
		if sig.Test(&records[i]) {
			n++
		}
	}
	return n
}

func prevalence(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
