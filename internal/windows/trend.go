package windows

import (
	"sort"
	"time"

	"makersight/internal/sessions"
)

// DailyCount is one day's session count.
type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// DailyCounts buckets sessions by the UTC day of their first event over
// [from, to), one entry per day including zero days, in date order.
func DailyCounts(records []sessions.Record, from, to time.Time) []DailyCount {
	counts := make(map[time.Time]int)
	for i := range records {
		t := records[i].FirstEventTime
		if t.Before(from) || !t.Before(to) {
			continue
		}
		counts[truncateToDay(t)]++
	}

	var result []DailyCount
	for day := truncateToDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		result = append(result, DailyCount{Date: day, Count: counts[day]})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

// Trend fits a least-squares line through the daily counts and returns its
// slope in sessions per day. Fewer than two points has no trend.
func Trend(points []DailyCount) float64 {
	if len(points) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(points))

	for i, point := range points {
		x := float64(i)
		y := float64(point.Count)

		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

func truncateToDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
