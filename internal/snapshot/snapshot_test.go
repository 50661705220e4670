package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makersight/internal/events"
	"makersight/internal/sessions"
	"makersight/internal/snapshot"
	"makersight/internal/testsupport"
)

var asOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func buildInput(t *testing.T) snapshot.BuildInput {
	t.Helper()

	history := []sessions.Record{
		testsupport.MakeSession("s1", asOf.AddDate(0, 0, -2), func(r *sessions.Record) {
			r.Country = "US"
			r.HasPurchase = true
		}),
		testsupport.MakeSession("s2", asOf.AddDate(0, 0, -3), func(r *sessions.Record) {
			r.Country = "DE"
			r.PageViews = 2
		}),
		testsupport.MakeSession("s3", asOf.AddDate(0, 0, -4), func(r *sessions.Record) {
			r.Country = "US"
		}),
	}

	rawEvents := []events.Event{
		testsupport.MakeEvent("s3", events.EventSiteSearch, asOf.AddDate(0, 0, -4), map[string]string{
			events.ParamSearchTerm: "ceramic mug",
		}),
		testsupport.MakeEvent("s3", events.EventSiteSearch, asOf.AddDate(0, 0, -4).Add(time.Minute), map[string]string{
			events.ParamSearchTerm: "ceramic mug",
		}),
		testsupport.MakeEvent("s2", events.EventSiteSearch, asOf.AddDate(0, 0, -3), map[string]string{
			events.ParamSearchTerm: "gift set",
		}),
		testsupport.MakeEvent("s2", events.EventFAQClick, asOf.AddDate(0, 0, -3).Add(time.Minute), map[string]string{
			events.ParamFAQQuestion: "shipping times",
		}),
	}

	return snapshot.BuildInput{
		AsOf:        asOf,
		History:     history,
		Events:      rawEvents,
		Diagnostics: snapshot.Diagnostics{RejectedEvents: 2, DeduplicatedEvents: 1},
	}
}

func TestBuildLevelCountsAlwaysComplete(t *testing.T) {
	cfg := testsupport.TestConfig(t)
	built := snapshot.Build(buildInput(t), cfg)

	require.Len(t, built.LevelCounts, 6)
	assert.Equal(t, 1, built.LevelCounts[6])
	assert.Equal(t, 1, built.LevelCounts[2])
	assert.Equal(t, 1, built.LevelCounts[1])
	assert.Equal(t, 0, built.LevelCounts[5])
	assert.Equal(t, 3, built.TotalSessions)
}

func TestBuildTopCountriesUseDisplayNames(t *testing.T) {
	cfg := testsupport.TestConfig(t)
	built := snapshot.Build(buildInput(t), cfg)

	require.Len(t, built.TopCountries, 2)
	assert.Equal(t, "United States", built.TopCountries[0].Country)
	assert.Equal(t, 2, built.TopCountries[0].Sessions)
	assert.Equal(t, "Germany", built.TopCountries[1].Country)
}

func TestBuildTopTerms(t *testing.T) {
	cfg := testsupport.TestConfig(t)
	built := snapshot.Build(buildInput(t), cfg)

	require.Len(t, built.TopSearchTerms, 2)
	assert.Equal(t, "ceramic mug", built.TopSearchTerms[0].Term)
	assert.Equal(t, 2, built.TopSearchTerms[0].Count)

	require.Len(t, built.TopFAQQuestions, 1)
	assert.Equal(t, "shipping times", built.TopFAQQuestions[0].Term)
}

func TestBuildAssignsFreshRunIDs(t *testing.T) {
	cfg := testsupport.TestConfig(t)
	input := buildInput(t)

	a := snapshot.Build(input, cfg)
	b := snapshot.Build(input, cfg)

	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	cfg := testsupport.TestConfig(t)
	built := snapshot.Build(buildInput(t), cfg)

	path := filepath.Join(t.TempDir(), "out", "snapshot.json")
	require.NoError(t, built.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded snapshot.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, built.RunID, decoded.RunID)
	assert.Equal(t, built.TotalSessions, decoded.TotalSessions)
	assert.Equal(t, 2, decoded.Diagnostics.RejectedEvents)

	// Overwriting leaves exactly one file behind
	require.NoError(t, built.WriteFile(path))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
