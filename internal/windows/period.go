// Package windows computes rolling-window metrics and deltas against the
// immediately preceding window of the same length.
package windows

import "time"

// Period is a half-open time interval [From, To). Membership uses
// From <= t < To, so adjacent periods sharing a boundary instant never
// double-count an event.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// Pair holds a current window and the previous window of the same length
// directly before it. The two share a boundary instant and never overlap.
type Pair struct {
	Current  Period `json:"current"`
	Previous Period `json:"previous"`
}

// WindowPair builds the current window [asOf-days, asOf) and the previous
// window [asOf-2*days, asOf-days).
func WindowPair(asOf time.Time, days int) Pair {
	length := time.Duration(days) * 24 * time.Hour
	boundary := asOf.Add(-length)
	return Pair{
		Current:  Period{From: boundary, To: asOf},
		Previous: Period{From: asOf.Add(-2 * length), To: boundary},
	}
}
