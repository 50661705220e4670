package windows_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makersight/internal/pkg/async"
	"makersight/internal/sessions"
	"makersight/internal/testsupport"
	"makersight/internal/windows"
)

var asOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestWindowPairDoesNotOverlap(t *testing.T) {
	for _, days := range []int{7, 30, 90, 365} {
		t.Run(fmt.Sprintf("%d days", days), func(t *testing.T) {
			pair := windows.WindowPair(asOf, days)

			assert.Equal(t, asOf, pair.Current.To)
			assert.Equal(t, pair.Previous.To, pair.Current.From)
			assert.Equal(t, float64(days*24), pair.Current.To.Sub(pair.Current.From).Hours())
			assert.Equal(t, float64(days*24), pair.Previous.To.Sub(pair.Previous.From).Hours())

			// The shared boundary instant belongs to exactly one period
			boundary := pair.Current.From
			assert.True(t, pair.Current.Contains(boundary))
			assert.False(t, pair.Previous.Contains(boundary))
		})
	}
}

func TestPeriodMembershipIsHalfOpen(t *testing.T) {
	p := windows.Period{From: asOf.AddDate(0, 0, -7), To: asOf}

	assert.True(t, p.Contains(p.From))
	assert.False(t, p.Contains(p.To))
	assert.True(t, p.Contains(asOf.Add(-time.Second)))
	assert.False(t, p.Contains(p.From.Add(-time.Second)))
}

// historyOverDays builds perDay sessions for each of the given days back
// from the cutoff, all in one country.
func historyOverDays(daysBack, perDay int) []sessions.Record {
	var records []sessions.Record
	for d := 1; d <= daysBack; d++ {
		for i := 0; i < perDay; i++ {
			id := fmt.Sprintf("s-%d-%d", d, i)
			at := asOf.AddDate(0, 0, -d).Add(time.Duration(i) * time.Hour)
			records = append(records, testsupport.MakeSession(id, at, nil))
		}
	}
	return records
}

func computeWindows(t *testing.T, history []sessions.Record, windowDays []int) []windows.MetricWindow {
	t.Helper()
	cfg := testsupport.TestConfig(t)
	cfg.WindowDays = windowDays

	pool := async.NewPool(cfg.WorkerCount)
	result, err := windows.Compute(context.Background(), pool, history,
		windows.CoverageStart(history), asOf, cfg)
	require.NoError(t, err)
	return result
}

func findWindow(t *testing.T, result []windows.MetricWindow, metric string, days int, country string) windows.MetricWindow {
	t.Helper()
	for _, w := range result {
		if w.Metric == metric && w.WindowDays == days && w.Country == country {
			return w
		}
	}
	t.Fatalf("window %s/%d/%q not found", metric, days, country)
	return windows.MetricWindow{}
}

func TestComputeDelta(t *testing.T) {
	// 14 days of history, 3 sessions per day: both 7-day windows fully covered
	history := historyOverDays(14, 3)

	result := computeWindows(t, history, []int{7})
	w := findWindow(t, result, "session_count", 7, "")

	assert.Equal(t, 21.0, w.Current)
	require.NotNil(t, w.Previous)
	assert.Equal(t, 21.0, *w.Previous)
	require.NotNil(t, w.Delta)
	assert.Equal(t, 0.0, *w.Delta)
	require.NotNil(t, w.PctChange)
	assert.Equal(t, 0.0, *w.PctChange)
	assert.False(t, w.PreviousUnavailable)
	assert.False(t, w.LowConfidence)
}

func TestComputePreviousUnavailable(t *testing.T) {
	// Only 10 days of history: the previous 7-day window needs day 14
	history := historyOverDays(10, 3)

	result := computeWindows(t, history, []int{7})
	w := findWindow(t, result, "session_count", 7, "")

	assert.Equal(t, 21.0, w.Current)
	assert.True(t, w.PreviousUnavailable)
	assert.Nil(t, w.Previous)
	assert.Nil(t, w.Delta)
	assert.Nil(t, w.PctChange)
}

func TestComputePctChangeNilWhenPreviousZero(t *testing.T) {
	// History covers both windows but all sessions sit in the current one
	var history []sessions.Record
	history = append(history, testsupport.MakeSession("old", asOf.AddDate(0, 0, -20), nil))
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("cur-%d", i)
		history = append(history, testsupport.MakeSession(id, asOf.AddDate(0, 0, -2), func(r *sessions.Record) {
			r.HasPurchase = true
		}))
	}

	result := computeWindows(t, history, []int{7})
	w := findWindow(t, result, "purchase_count", 7, "")

	assert.Equal(t, 6.0, w.Current)
	require.NotNil(t, w.Previous)
	assert.Equal(t, 0.0, *w.Previous)
	require.NotNil(t, w.Delta)
	assert.Equal(t, 6.0, *w.Delta)
	assert.Nil(t, w.PctChange)
}

func TestComputeLowConfidence(t *testing.T) {
	// Three sessions in the current window, under the default minimum of 5;
	// the previous window is fully covered and well populated
	var sparse []sessions.Record
	for _, rec := range historyOverDays(14, 3) {
		cutoff := asOf.AddDate(0, 0, -7)
		if rec.FirstEventTime.Before(cutoff) || rec.SessionID == "s-1-0" || rec.SessionID == "s-2-0" || rec.SessionID == "s-3-0" {
			sparse = append(sparse, rec)
		}
	}

	result := computeWindows(t, sparse, []int{7})
	w := findWindow(t, result, "session_count", 7, "")

	assert.Equal(t, 3.0, w.Current)
	assert.True(t, w.LowConfidence)
	require.NotNil(t, w.Delta)
}

func TestComputeIsIdempotent(t *testing.T) {
	history := historyOverDays(20, 2)

	first := computeWindows(t, history, []int{7, 30})
	second := computeWindows(t, history, []int{7, 30})

	assert.Equal(t, first, second)
}

func TestComputePerCountry(t *testing.T) {
	var history []sessions.Record
	for d := 1; d <= 14; d++ {
		for i, country := range []string{"US", "US", "DE"} {
			id := fmt.Sprintf("s-%d-%d", d, i)
			at := asOf.AddDate(0, 0, -d).Add(time.Duration(i) * time.Hour)
			history = append(history, testsupport.MakeSession(id, at, func(r *sessions.Record) {
				r.Country = country
			}))
		}
	}

	result := computeWindows(t, history, []int{7})

	overall := findWindow(t, result, "session_count", 7, "")
	us := findWindow(t, result, "session_count", 7, "US")
	de := findWindow(t, result, "session_count", 7, "DE")

	assert.Equal(t, 21.0, overall.Current)
	assert.Equal(t, 14.0, us.Current)
	assert.Equal(t, 7.0, de.Current)
}

func TestTopCountries(t *testing.T) {
	var history []sessions.Record
	add := func(country string, n int) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%d", country, i)
			history = append(history, testsupport.MakeSession(id, asOf, func(r *sessions.Record) {
				r.Country = country
			}))
		}
	}
	add("US", 5)
	add("DE", 3)
	add("FR", 3)
	add("GB", 1)

	top := windows.TopCountries(history, 3)
	assert.Equal(t, []string{"US", "DE", "FR"}, top)
}

func TestDailyCountsAndTrend(t *testing.T) {
	from := asOf.AddDate(0, 0, -5)

	var history []sessions.Record
	for d := 0; d < 5; d++ {
		for i := 0; i <= d; i++ {
			id := fmt.Sprintf("s-%d-%d", d, i)
			at := from.AddDate(0, 0, d).Add(time.Duration(i+1) * time.Hour)
			history = append(history, testsupport.MakeSession(id, at, nil))
		}
	}

	daily := windows.DailyCounts(history, from, asOf)
	require.Len(t, daily, 5)
	for d := 0; d < 5; d++ {
		assert.Equal(t, d+1, daily[d].Count)
	}

	// Counts grow by exactly one per day
	assert.InDelta(t, 1.0, windows.Trend(daily), 1e-9)

	assert.Zero(t, windows.Trend(nil))
	assert.Zero(t, windows.Trend(daily[:1]))
}
