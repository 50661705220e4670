package windows

import (
	"makersight/internal/config"
	"makersight/internal/engagement"
	"makersight/internal/sessions"
)

// Metric is a named extractor that reduces a set of session records to one
// number.
type Metric struct {
	Name string
	Fn   func(records []sessions.Record) float64
}

// SessionMetrics returns the standard metric set. High-intent counting
// depends on the configured cutoff, so the config is bound in here.
func SessionMetrics(cfg *config.Config) []Metric {
	return []Metric{
		{
			Name: "session_count",
			Fn: func(records []sessions.Record) float64 {
				return float64(len(records))
			},
		},
		{
			Name: "purchase_count",
			Fn: func(records []sessions.Record) float64 {
				n := 0
				for i := range records {
					if records[i].HasPurchase {
						n++
					}
				}
				return float64(n)
			},
		},
		{
			Name: "high_intent_count",
			Fn: func(records []sessions.Record) float64 {
				n := 0
				for i := range records {
					level := engagement.Classify(&records[i], cfg)
					if engagement.IsHighIntent(level, cfg) {
						n++
					}
				}
				return float64(n)
			},
		},
		{
			Name: "total_engagement_seconds",
			Fn: func(records []sessions.Record) float64 {
				total := 0
				for i := range records {
					total += records[i].EngagementSeconds
				}
				return float64(total)
			},
		},
	}
}
