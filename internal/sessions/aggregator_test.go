package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makersight/internal/events"
	"makersight/internal/sessions"
	"makersight/internal/testsupport"
)

var base = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func TestAggregateCounters(t *testing.T) {
	rawEvents := []events.Event{
		testsupport.MakeEvent("s1", events.EventSessionStart, base, nil),
		testsupport.MakeEvent("s1", events.EventPageView, base.Add(5*time.Second), nil),
		testsupport.MakeEvent("s1", events.EventPageView, base.Add(40*time.Second), nil),
		testsupport.MakeEvent("s1", events.EventFAQClick, base.Add(60*time.Second), map[string]string{
			events.ParamFAQQuestion: "shipping times",
		}),
		testsupport.MakeEvent("s1", events.EventSiteSearch, base.Add(80*time.Second), map[string]string{
			events.ParamSearchTerm: "ceramic mug",
		}),
		testsupport.MakeEvent("s1", events.EventScroll, base.Add(90*time.Second), nil),
		testsupport.MakeEvent("s1", events.EventViewItem, base.Add(2*time.Minute), map[string]string{
			events.ParamProductID: "mug-classic",
		}),
		testsupport.MakeEvent("s1", events.EventAddToCart, base.Add(3*time.Minute), nil),
	}

	records, diag := sessions.Aggregate(rawEvents)

	require.Len(t, records, 1)
	assert.Zero(t, diag.RejectedEvents)
	assert.Zero(t, diag.DeduplicatedEvents)

	rec := records["s1"]
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.PageViews)
	assert.Equal(t, 1, rec.FAQClicks)
	assert.Equal(t, 1, rec.SiteSearches)
	assert.Equal(t, 1, rec.ScrollEvents)
	assert.Equal(t, 1, rec.ProductsViewed)
	assert.True(t, rec.HasCartAdd)
	assert.False(t, rec.HasPurchase)
	assert.Equal(t, 180, rec.EngagementSeconds)
	assert.Equal(t, base, rec.FirstEventTime)
	assert.Equal(t, base.Add(3*time.Minute), rec.LastEventTime)
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	forward := []events.Event{
		testsupport.MakeEvent("s1", events.EventPageView, base, nil),
		testsupport.MakeEvent("s1", events.EventPageView, base.Add(30*time.Second), nil),
		testsupport.MakeEvent("s1", events.EventPurchase, base.Add(2*time.Minute), nil),
	}
	reversed := []events.Event{forward[2], forward[0], forward[1]}

	a, _ := sessions.Aggregate(forward)
	b, _ := sessions.Aggregate(reversed)

	assert.Equal(t, a["s1"], b["s1"])
}

func TestAggregateRejectsAndDeduplicates(t *testing.T) {
	duplicate := testsupport.MakeEvent("s1", events.EventPageView, base, nil)
	rawEvents := []events.Event{
		duplicate,
		duplicate,
		testsupport.MakeEvent("", events.EventPageView, base, nil),
		{SessionID: "s2", Name: events.EventPageView},
	}

	records, diag := sessions.Aggregate(rawEvents)

	assert.Len(t, records, 1)
	assert.Equal(t, 2, diag.RejectedEvents)
	assert.Equal(t, 1, diag.DeduplicatedEvents)
	assert.Equal(t, 1, records["s1"].PageViews)
}

func TestAggregateDistinctProducts(t *testing.T) {
	rawEvents := []events.Event{
		testsupport.MakeEvent("s1", events.EventViewItem, base, map[string]string{events.ParamProductID: "mug-classic"}),
		testsupport.MakeEvent("s1", events.EventViewItem, base.Add(10*time.Second), map[string]string{events.ParamProductID: "mug-classic"}),
		testsupport.MakeEvent("s1", events.EventViewItem, base.Add(20*time.Second), map[string]string{events.ParamProductID: "board-walnut"}),
		testsupport.MakeEvent("s1", events.EventPageView, base.Add(30*time.Second), map[string]string{events.ParamProductID: "apron-linen"}),
		testsupport.MakeEvent("s1", events.EventFAQClick, base.Add(40*time.Second), map[string]string{events.ParamProductID: "ignored-on-faq"}),
	}

	records, _ := sessions.Aggregate(rawEvents)
	assert.Equal(t, 3, records["s1"].ProductsViewed)
}

func TestAggregateCartSignals(t *testing.T) {
	tests := []struct {
		name  string
		event string
	}{
		{"add to cart", events.EventAddToCart},
		{"view cart", events.EventViewCart},
		{"begin checkout", events.EventBeginCheckout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rawEvents := []events.Event{
				testsupport.MakeEvent("s1", events.EventPageView, base, nil),
				testsupport.MakeEvent("s1", tc.event, base.Add(time.Minute), nil),
			}

			records, _ := sessions.Aggregate(rawEvents)
			require.NotNil(t, records["s1"])
			assert.True(t, records["s1"].HasCartAdd)
		})
	}
}

func TestAggregateZeroPageViewSessionIsValid(t *testing.T) {
	rawEvents := []events.Event{
		testsupport.MakeEvent("s1", events.EventScroll, base, nil),
	}

	records, diag := sessions.Aggregate(rawEvents)

	require.Len(t, records, 1)
	assert.Zero(t, diag.RejectedEvents)
	assert.Zero(t, records["s1"].PageViews)
	assert.Zero(t, records["s1"].EngagementSeconds)
}

func TestSortedIsDeterministic(t *testing.T) {
	rawEvents := []events.Event{
		testsupport.MakeEvent("b", events.EventPageView, base, nil),
		testsupport.MakeEvent("a", events.EventPageView, base, nil),
		testsupport.MakeEvent("c", events.EventPageView, base.Add(-time.Minute), nil),
	}

	records, _ := sessions.Aggregate(rawEvents)
	sorted := sessions.Sorted(records)

	require.Len(t, sorted, 3)
	assert.Equal(t, "c", sorted[0].SessionID)
	assert.Equal(t, "a", sorted[1].SessionID)
	assert.Equal(t, "b", sorted[2].SessionID)
}

func TestRebuildReplacesStoredRecords(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	first := []sessions.Record{
		testsupport.MakeSession("s1", base, nil),
		testsupport.MakeSession("s2", base.Add(time.Hour), nil),
	}
	require.NoError(t, sessions.Rebuild(dbManager, logger, first))

	second := []sessions.Record{
		testsupport.MakeSession("s3", base.Add(2*time.Hour), nil),
	}
	require.NoError(t, sessions.Rebuild(dbManager, logger, second))

	stored, err := sessions.All(db)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "s3", stored[0].SessionID)
}

func TestInRange(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	records := []sessions.Record{
		testsupport.MakeSession("early", base.AddDate(0, 0, -10), nil),
		testsupport.MakeSession("inside", base, nil),
		testsupport.MakeSession("boundary", base.AddDate(0, 0, 7), nil),
	}
	require.NoError(t, sessions.Rebuild(dbManager, logger, records))

	found, err := sessions.InRange(db, base, base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "inside", found[0].SessionID)
}
