// Package sessions collapses raw analytics events into one record per
// session and persists the per-run session table.
package sessions

import (
	"sort"
	"time"

	"makersight/internal/events"
)

// Aggregate groups raw events by session id and derives session-level
// features. Events missing a session id or carrying a zero timestamp are
// skipped and counted; exact duplicates (same session, name, timestamp and
// params) are deduplicated before counting so replayed exports cannot
// double-count. The input order does not matter.
func Aggregate(rawEvents []events.Event) (map[string]*Record, Diagnostics) {
	diag := Diagnostics{}
	records := make(map[string]*Record)
	seen := make(map[string]bool, len(rawEvents))
	products := make(map[string]map[string]bool)

	for i := range rawEvents {
		e := &rawEvents[i]
		if e.SessionID == "" || e.Timestamp.IsZero() {
			diag.RejectedEvents++
			continue
		}

		key := e.SessionID + "|" + e.Name + "|" + e.Timestamp.Format(time.RFC3339Nano) + "|" + e.ParamsJSON
		if seen[key] {
			diag.DeduplicatedEvents++
			continue
		}
		seen[key] = true

		rec, ok := records[e.SessionID]
		if !ok {
			rec = &Record{
				SessionID:      e.SessionID,
				UserPseudoID:   e.UserPseudoID,
				Country:        e.Country,
				DeviceCategory: e.DeviceCategory,
				TrafficSource:  e.TrafficSource,
				TrafficMedium:  e.TrafficMedium,
				FirstEventTime: e.Timestamp,
				LastEventTime:  e.Timestamp,
			}
			records[e.SessionID] = rec
			products[e.SessionID] = make(map[string]bool)
		}

		if e.Timestamp.Before(rec.FirstEventTime) {
			rec.FirstEventTime = e.Timestamp
		}
		if e.Timestamp.After(rec.LastEventTime) {
			rec.LastEventTime = e.Timestamp
		}

		// Attribute fields use the first non-empty value seen for the session
		if rec.Country == "" || rec.Country == events.UnknownCountry {
			if e.Country != "" {
				rec.Country = e.Country
			}
		}
		if rec.DeviceCategory == "" {
			rec.DeviceCategory = e.DeviceCategory
		}
		if rec.TrafficSource == "" {
			rec.TrafficSource = e.TrafficSource
		}
		if rec.TrafficMedium == "" {
			rec.TrafficMedium = e.TrafficMedium
		}
		if rec.UserPseudoID == "" {
			rec.UserPseudoID = e.UserPseudoID
		}

		switch e.Name {
		case events.EventPageView:
			rec.PageViews++
		case events.EventFAQClick:
			rec.FAQClicks++
		case events.EventGalleryClick:
			rec.GalleryClicks++
		case events.EventSiteSearch:
			rec.SiteSearches++
		case events.EventScroll:
			rec.ScrollEvents++
		case events.EventAddToCart, events.EventViewCart, events.EventBeginCheckout:
			rec.HasCartAdd = true
		case events.EventFormStart:
			rec.HasFormStart = true
		case events.EventPurchase:
			rec.HasPurchase = true
		}

		// Distinct products referenced across page-view and product-detail events
		if e.Name == events.EventPageView || e.Name == events.EventViewItem {
			if productID := e.Param(events.ParamProductID); productID != "" {
				products[e.SessionID][productID] = true
			}
		}
	}

	for sessionID, rec := range records {
		rec.ProductsViewed = len(products[sessionID])

		// Engagement time is last minus first; a single-timestamp session
		// clamps to zero rather than going negative
		seconds := int(rec.LastEventTime.Sub(rec.FirstEventTime) / time.Second)
		if seconds < 0 {
			seconds = 0
		}
		rec.EngagementSeconds = seconds
	}

	return records, diag
}

// Sorted returns the aggregated records ordered by first event time, then
// session id, for deterministic downstream processing.
func Sorted(records map[string]*Record) []Record {
	result := make([]Record, 0, len(records))
	for _, rec := range records {
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].FirstEventTime.Equal(result[j].FirstEventTime) {
			return result[i].FirstEventTime.Before(result[j].FirstEventTime)
		}
		return result[i].SessionID < result[j].SessionID
	})
	return result
}
