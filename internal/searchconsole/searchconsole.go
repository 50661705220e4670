// Package searchconsole stores search-console query exports and rolls them
// up into the same window pairs as the session metrics.
package searchconsole

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"makersight/internal/config"
	"makersight/internal/windows"
)

// Row is one day of one query's search performance.
type Row struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Date        time.Time `gorm:"index;not null"`
	Query       string    `gorm:"index;not null"`
	Country     string
	Clicks      int
	Impressions int
	Position    float64
	CreatedAt   time.Time
}

// TableName keeps the search-console table distinct from other per-day row models.
func (Row) TableName() string {
	return "search_console_rows"
}

// IngestResult counts the outcome of one export ingestion.
type IngestResult struct {
	Inserted int
	Rejected int
}

// QueryStat is one query's aggregate clicks and impressions in a window.
type QueryStat struct {
	Query       string `json:"query"`
	Clicks      int    `json:"clicks"`
	Impressions int    `json:"impressions"`
}

// Window is the click/impression rollup for one window pair, with the top
// queries of the current period.
type Window struct {
	WindowDays int       `json:"window_days"`
	PeriodEnd  time.Time `json:"period_end"`

	Clicks      int `json:"clicks"`
	Impressions int `json:"impressions"`

	PreviousClicks      *int        `json:"previous_clicks"`
	ClicksDelta         *int        `json:"clicks_delta"`
	PreviousUnavailable bool        `json:"previous_unavailable"`
	TopQueries          []QueryStat `json:"top_queries"`
}

// IngestCSV reads a search-console export (date, query, country, clicks,
// impressions, position). Rows with a missing query or unparseable date are
// skipped and counted.
func IngestCSV(dbManager cartridge.DBManager, logger *slog.Logger, r io.Reader) (*IngestResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read search-console export header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"date", "query"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("search-console export is missing required column %q", required)
		}
	}

	result := &IngestResult{}
	var batch []*Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("Skipping unreadable search-console row", slog.Any("error", err))
			result.Rejected++
			continue
		}

		row, ok := parseRow(columns, record)
		if !ok {
			result.Rejected++
			continue
		}
		batch = append(batch, row)
	}

	if len(batch) > 0 {
		db := dbManager.GetConnection()
		err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			return tx.CreateInBatches(batch, 200).Error
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store search-console rows: %w", err)
		}
	}
	result.Inserted = len(batch)

	logger.Info("Ingested search-console export",
		slog.Int("inserted", result.Inserted),
		slog.Int("rejected", result.Rejected))
	return result, nil
}

func parseRow(columns map[string]int, record []string) (*Row, bool) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	query := get("query")
	if query == "" {
		return nil, false
	}
	date, err := time.Parse("2006-01-02", get("date"))
	if err != nil {
		return nil, false
	}

	clicks, _ := strconv.Atoi(get("clicks"))
	impressions, _ := strconv.Atoi(get("impressions"))
	position, _ := strconv.ParseFloat(get("position"), 64)

	return &Row{
		Date:        date.UTC(),
		Query:       query,
		Country:     get("country"),
		Clicks:      clicks,
		Impressions: impressions,
		Position:    position,
		CreatedAt:   time.Now().UTC(),
	}, true
}

// All loads the full search-console history in date order.
func All(db *gorm.DB) ([]Row, error) {
	var result []Row
	if err := db.Order("date ASC, query ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to load search-console rows: %w", err)
	}
	return result, nil
}

// ComputeWindows rolls the query history up per configured window length.
func ComputeWindows(rows []Row, asOf time.Time, cfg *config.Config) []Window {
	coverageStart := coverage(rows)

	var result []Window
	for _, days := range cfg.WindowDays {
		pair := windows.WindowPair(asOf, days)

		w := Window{WindowDays: days, PeriodEnd: asOf}
		w.Clicks, w.Impressions = totals(rows, pair.Current)
		w.TopQueries = topQueries(rows, pair.Current, cfg.TopTerms)

		if coverageStart.IsZero() || coverageStart.After(pair.Previous.From) {
			w.PreviousUnavailable = true
		} else {
			prevClicks, _ := totals(rows, pair.Previous)
			delta := w.Clicks - prevClicks
			w.PreviousClicks = &prevClicks
			w.ClicksDelta = &delta
		}
		result = append(result, w)
	}
	return result
}

func totals(rows []Row, p windows.Period) (clicks, impressions int) {
	for i := range rows {
		if !p.Contains(rows[i].Date) {
			continue
		}
		clicks += rows[i].Clicks
		impressions += rows[i].Impressions
	}
	return clicks, impressions
}

func topQueries(rows []Row, p windows.Period, n int) []QueryStat {
	byQuery := make(map[string]*QueryStat)
	for i := range rows {
		if !p.Contains(rows[i].Date) {
			continue
		}
		stat, ok := byQuery[rows[i].Query]
		if !ok {
			stat = &QueryStat{Query: rows[i].Query}
			byQuery[rows[i].Query] = stat
		}
		stat.Clicks += rows[i].Clicks
		stat.Impressions += rows[i].Impressions
	}

	result := make([]QueryStat, 0, len(byQuery))
	for _, stat := range byQuery {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Clicks != result[j].Clicks {
			return result[i].Clicks > result[j].Clicks
		}
		if result[i].Impressions != result[j].Impressions {
			return result[i].Impressions > result[j].Impressions
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func coverage(rows []Row) time.Time {
	var earliest time.Time
	for i := range rows {
		if earliest.IsZero() || rows[i].Date.Before(earliest) {
			earliest = rows[i].Date
		}
	}
	return earliest
}
