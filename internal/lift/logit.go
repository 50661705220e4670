package lift

import (
	"fmt"
	"math"
	"sort"

	"makersight/internal/config"
	"makersight/internal/engagement"
	"makersight/internal/sessions"
)

// FeatureWeight is one feature's learned coefficient. Features are ranked by
// absolute weight; the sign says which direction the feature pushes.
type FeatureWeight struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

type feature struct {
	name    string
	extract func(r *sessions.Record) float64
}

func numericFeatures() []feature {
	return []feature{
		{"page_views", func(r *sessions.Record) float64 { return float64(r.PageViews) }},
		{"faq_clicks", func(r *sessions.Record) float64 { return float64(r.FAQClicks) }},
		{"gallery_clicks", func(r *sessions.Record) float64 { return float64(r.GalleryClicks) }},
		{"site_searches", func(r *sessions.Record) float64 { return float64(r.SiteSearches) }},
		{"scroll_events", func(r *sessions.Record) float64 { return float64(r.ScrollEvents) }},
		{"products_viewed", func(r *sessions.Record) float64 { return float64(r.ProductsViewed) }},
		{"engagement_seconds", func(r *sessions.Record) float64 { return float64(r.EngagementSeconds) }},
	}
}

// rankFeatures fits a logistic regression of high-intent membership on the
// session features and ranks features by absolute coefficient. Numeric
// counters are standardized; categorical signals enter as 0/1 indicators.
// Classes are weighted inversely to their frequency so the handful of
// high-intent sessions is not drowned out by the browsing majority.
//
// Returns a skip reason instead of weights when the positive class is too
// small to learn anything stable from.
func rankFeatures(records []sessions.Record, signals []Signal, cfg *config.Config) ([]FeatureWeight, string) {
	positives := 0
	labels := make([]float64, len(records))
	for i := range records {
		level := engagement.Classify(&records[i], cfg)
		if engagement.IsHighIntent(level, cfg) {
			labels[i] = 1
			positives++
		}
	}

	if positives < cfg.MinTrainingPositives {
		return nil, fmt.Sprintf("fewer than %d high-intent sessions (%d)", cfg.MinTrainingPositives, positives)
	}
	if positives == len(records) {
		return nil, "no low-intent sessions to contrast against"
	}

	features := numericFeatures()
	for _, sig := range signals {
		sig := sig
		features = append(features, feature{
			name: sig.Name,
			extract: func(r *sessions.Record) float64 {
				if sig.Test(r) {
					return 1
				}
				return 0
			},
		})
	}

	matrix := designMatrix(records, features)
	standardize(matrix)

	weights := fit(matrix, labels, positives, cfg.LogitIterations, cfg.LogitLearningRate)

	ranked := make([]FeatureWeight, len(features))
	for j, f := range features {
		ranked[j] = FeatureWeight{Feature: f.name, Coefficient: weights[j]}
	}
	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := math.Abs(ranked[i].Coefficient), math.Abs(ranked[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		return ranked[i].Feature < ranked[j].Feature
	})
	return ranked, ""
}

func designMatrix(records []sessions.Record, features []feature) [][]float64 {
	matrix := make([][]float64, len(records))
	for i := range records {
		row := make([]float64, len(features))
		for j, f := range features {
			row[j] = f.extract(&records[i])
		}
		matrix[i] = row
	}
	return matrix
}

// standardize rescales each column to zero mean and unit variance in place.
// Constant columns are left at zero so they cannot dominate the fit.
func standardize(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	cols := len(matrix[0])
	n := float64(len(matrix))

	for j := 0; j < cols; j++ {
		mean := 0.0
		for i := range matrix {
			mean += matrix[i][j]
		}
		mean /= n

		variance := 0.0
		for i := range matrix {
			d := matrix[i][j] - mean
			variance += d * d
		}
		stddev := math.Sqrt(variance / n)

		for i := range matrix {
			if stddev == 0 {
				matrix[i][j] = 0
			} else {
				matrix[i][j] = (matrix[i][j] - mean) / stddev
			}
		}
	}
}

// fit runs batch gradient descent on weighted logistic loss. The intercept is
// learned but not reported; only feature weights matter for ranking.
func fit(matrix [][]float64, labels []float64, positives, iterations int, rate float64) []float64 {
	n := len(matrix)
	cols := len(matrix[0])
	negatives := n - positives

	// Balanced class weights: n / (2 * class size)
	posWeight := float64(n) / (2 * float64(positives))
	negWeight := float64(n) / (2 * float64(negatives))

	weights := make([]float64, cols)
	intercept := 0.0

	for iter := 0; iter < iterations; iter++ {
		grad := make([]float64, cols)
		gradIntercept := 0.0

		for i := 0; i < n; i++ {
			z := intercept
			for j := 0; j < cols; j++ {
				z += weights[j] * matrix[i][j]
			}
			p := sigmoid(z)

			w := negWeight
			if labels[i] == 1 {
				w = posWeight
			}
			residual := w * (p - labels[i])

			gradIntercept += residual
			for j := 0; j < cols; j++ {
				grad[j] += residual * matrix[i][j]
			}
		}

		intercept -= rate * gradIntercept / float64(n)
		for j := 0; j < cols; j++ {
			weights[j] -= rate * grad[j] / float64(n)
		}
	}
	return weights
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
