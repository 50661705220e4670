// Package engagement assigns each session an ordinal intent level (1-6).
//
// The hierarchy is deliberately coarse: with sales volume in the tens per
// month, fine-grained scoring is statistical noise, while discrete levels
// keep enough sessions per bucket for the lift engine to compare populations.
package engagement

import (
	"makersight/internal/config"
	"makersight/internal/sessions"
)

// Level is the ordinal engagement classification of a session.
// 1 = minimal, 6 = purchase.
type Level int

const (
	LevelMinimal    Level = 1
	LevelBrowsing   Level = 2
	LevelEngaged    Level = 3
	LevelResearch   Level = 4
	LevelHighIntent Level = 5
	LevelPurchase   Level = 6
)

// Classify maps a session record to its engagement level. Pure and total:
// every record yields exactly one level, and the rules are evaluated from
// level 6 downward with the first satisfied level winning. A purchase session
// with a single page view is still level 6; it does not need to satisfy the
// lower rungs.
func Classify(rec *sessions.Record, cfg *config.Config) Level {
	if rec.HasPurchase {
		return LevelPurchase
	}

	if rec.HasCartAdd || rec.HasFormStart {
		return LevelHighIntent
	}

	if rec.SiteSearches >= cfg.Level4MinSearches || rec.ProductsViewed >= cfg.Level4MinProductsViewed {
		return LevelResearch
	}

	if rec.PageViews >= 1 && (rec.FAQClicks >= 1 || rec.GalleryClicks >= 1 || rec.ScrollEvents >= 1) {
		return LevelEngaged
	}

	if rec.PageViews >= cfg.Level2MinPageViews || rec.EngagementSeconds >= cfg.Level2MinEngagementSeconds {
		return LevelBrowsing
	}

	return LevelMinimal
}

// IsHighIntent reports whether a level counts as valuable traffic under the
// configured cutoff. The cutoff is configuration, not business law: operators
// can redefine "valuable" without touching the classifier.
func IsHighIntent(level Level, cfg *config.Config) bool {
	return int(level) >= cfg.HighIntentCutoff
}

// LevelCounts returns the number of sessions at each level. All six levels
// are always present in the result, zero-valued when empty.
func LevelCounts(records []sessions.Record, cfg *config.Config) map[Level]int {
	counts := make(map[Level]int, 6)
	for l := LevelMinimal; l <= LevelPurchase; l++ {
		counts[l] = 0
	}
	for i := range records {
		counts[Classify(&records[i], cfg)]++
	}
	return counts
}
