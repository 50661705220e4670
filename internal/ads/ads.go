// Package ads stores ad-platform performance exports and rolls them up into
// the same window pairs as the session metrics.
package ads

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"makersight/internal/config"
	"makersight/internal/windows"
)

// Row is one day of one campaign's performance.
type Row struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Date        time.Time `gorm:"index;not null"`
	Campaign    string    `gorm:"index;not null"`
	Clicks      int
	Impressions int
	CostMicros  int64
	Conversions float64
	CreatedAt   time.Time
}

// TableName keeps the ads table distinct from other per-day row models.
func (Row) TableName() string {
	return "ad_rows"
}

// IngestResult counts the outcome of one export ingestion.
type IngestResult struct {
	Inserted int
	Rejected int
}

// Window is the spend/click/conversion rollup for one window pair.
type Window struct {
	WindowDays int       `json:"window_days"`
	PeriodEnd  time.Time `json:"period_end"`

	Cost        float64 `json:"cost"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Conversions float64 `json:"conversions"`

	PreviousCost        *float64 `json:"previous_cost"`
	CostDelta           *float64 `json:"cost_delta"`
	PreviousUnavailable bool     `json:"previous_unavailable"`
}

// IngestCSV reads an ad-platform export (date, campaign, clicks, impressions,
// cost_micros, conversions). Rows with a missing campaign or unparseable date
// are skipped and counted.
func IngestCSV(dbManager cartridge.DBManager, logger *slog.Logger, r io.Reader) (*IngestResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read ads export header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"date", "campaign"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("ads export is missing required column %q", required)
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
			logger.Warn("Skipping unreadable ads row", slog.Any("error", err))
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
			return nil, fmt.Errorf("failed to store ads rows: %w", err)
		}
	}
	result.Inserted = len(batch)

	logger.Info("Ingested ads export",
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

	campaign := get("campaign")
	if campaign == "" {
		return nil, false
	}
	date, err := time.Parse("2006-01-02", get("date"))
	if err != nil {
		return nil, false
	}

	clicks, _ := strconv.Atoi(get("clicks"))
	impressions, _ := strconv.Atoi(get("impressions"))
	costMicros, _ := strconv.ParseInt(get("cost_micros"), 10, 64)
	conversions, _ := strconv.ParseFloat(get("conversions"), 64)

	return &Row{
		Date:        date.UTC(),
		Campaign:    campaign,
		Clicks:      clicks,
		Impressions: impressions,
		CostMicros:  costMicros,
		Conversions: conversions,
		CreatedAt:   time.Now().UTC(),
	}, true
}

// All loads the full ads history in date order.
func All(db *gorm.DB) ([]Row, error) {
	var result []Row
	if err := db.Order("date ASC, campaign ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to load ads rows: %w", err)
	}
	return result, nil
}

// ComputeWindows rolls the ads history up per configured window length.
// A previous period not fully covered by the history leaves the cost delta
// nil rather than comparing against truncated data.
func ComputeWindows(rows []Row, asOf time.Time, cfg *config.Config) []Window {
	coverageStart := coverage(rows)

	var result []Window
	for _, days := range cfg.WindowDays {
		pair := windows.WindowPair(asOf, days)

		w := Window{WindowDays: days, PeriodEnd: asOf}
		w.Cost, w.Clicks, w.Impressions, w.Conversions = totals(rows, pair.Current)

		if coverageStart.IsZero() || coverageStart.After(pair.Previous.From) {
			w.PreviousUnavailable = true
		} else {
			prevCost, _, _, _ := totals(rows, pair.Previous)
			delta := w.Cost - prevCost
			w.PreviousCost = &prevCost
			w.CostDelta = &delta
		}
		result = append(result, w)
	}
	return result
}

func totals(rows []Row, p windows.Period) (cost float64, clicks, impressions int, conversions float64) {
	for i := range rows {
		if !p.Contains(rows[i].Date) {
			continue
		}
		cost += float64(rows[i].CostMicros) / 1e6
		clicks += rows[i].Clicks
		impressions += rows[i].Impressions
		conversions += rows[i].Conversions
	}
	return cost, clicks, impressions, conversions
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
