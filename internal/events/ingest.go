package events

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
)

// Required export columns. Remaining columns are optional and default to "".
const (
	colTimestamp = "event_timestamp"
	colName      = "event_name"
	colSessionID = "ga_session_id"
)

var optionalColumns = []string{
	"user_pseudo_id",
	"geo_country",
	"device_category",
	"traffic_source",
	"traffic_medium",
	"event_params_json",
}

// IngestCSV reads one web-analytics export and stores its events. Rows
// missing a session id or with an unparseable timestamp are rejected and
// counted; exact duplicates of already-stored rows (same session, name,
// timestamp and params, as happens with replayed exports) are skipped.
func IngestCSV(dbManager cartridge.DBManager, logger *slog.Logger, r io.Reader) (*IngestResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{colTimestamp, colName, colSessionID} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("export is missing required column %q", required)
		}
	}

	result := &IngestResult{}
	var batch []*Event
	seen := make(map[string]bool)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line is a data-quality issue, not a fatal one
			logger.Warn("Skipping unreadable export row", slog.Any("error", err))
			result.Rejected++
			continue
		}

		event, ok := parseRow(columns, row)
		if !ok {
			result.Rejected++
			continue
		}

		key := dedupKey(event)
		if seen[key] {
			result.Deduplicated++
			continue
		}
		seen[key] = true
		batch = append(batch, event)
	}

	if len(batch) == 0 {
		logger.Info("No valid events in export", slog.Int("rejected", result.Rejected))
		return result, nil
	}

	db := dbManager.GetConnection()
	fresh, replayed, err := filterAlreadyStored(db, batch)
	if err != nil {
		return nil, err
	}
	result.Deduplicated += replayed

	if len(fresh) > 0 {
		err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			return tx.CreateInBatches(fresh, 200).Error
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store events: %w", err)
		}
	}
	result.Inserted = len(fresh)

	logger.Info("Ingested web-analytics export",
		slog.Int("inserted", result.Inserted),
		slog.Int("rejected", result.Rejected),
		slog.Int("deduplicated", result.Deduplicated))
	return result, nil
}

func parseRow(columns map[string]int, row []string) (*Event, bool) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	sessionID := get(colSessionID)
	name := get(colName)
	if sessionID == "" || name == "" {
		return nil, false
	}

	timestamp, ok := parseTimestamp(get(colTimestamp))
	if !ok {
		return nil, false
	}

	country := get("geo_country")
	if country == "" {
		country = UnknownCountry
	}

	return &Event{
		SessionID:      sessionID,
		UserPseudoID:   get("user_pseudo_id"),
		Name:           name,
		Country:        country,
		DeviceCategory: get("device_category"),
		TrafficSource:  get("traffic_source"),
		TrafficMedium:  get("traffic_medium"),
		ParamsJSON:     get("event_params_json"),
		Timestamp:      timestamp,
		CreatedAt:      time.Now().UTC(),
	}, true
}

// parseTimestamp accepts the export's epoch-microseconds format as well as
// RFC3339 and plain date/datetime strings.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	if micros, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if micros <= 0 {
			return time.Time{}, false
		}
		return time.UnixMicro(micros).UTC(), true
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func dedupKey(e *Event) string {
	return e.SessionID + "|" + e.Name + "|" + e.Timestamp.Format(time.RFC3339Nano) + "|" + e.ParamsJSON
}

// filterAlreadyStored drops events identical to rows already in the database,
// so re-running an export is idempotent.
func filterAlreadyStored(db *gorm.DB, batch []*Event) ([]*Event, int, error) {
	minTime, maxTime := batch[0].Timestamp, batch[0].Timestamp
	for _, e := range batch[1:] {
		if e.Timestamp.Before(minTime) {
			minTime = e.Timestamp
		}
		if e.Timestamp.After(maxTime) {
			maxTime = e.Timestamp
		}
	}

	var existing []Event
	err := db.Where("timestamp >= ? AND timestamp <= ?", minTime, maxTime).Find(&existing).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check for replayed events: %w", err)
	}

	stored := make(map[string]bool, len(existing))
	for i := range existing {
		stored[dedupKey(&existing[i])] = true
	}

	var fresh []*Event
	replayed := 0
	for _, e := range batch {
		if stored[dedupKey(e)] {
			replayed++
			continue
		}
		fresh = append(fresh, e)
	}
	return fresh, replayed, nil
}

// EventsInRange loads events whose timestamp falls in [from, to).
func EventsInRange(db *gorm.DB, from, to time.Time) ([]Event, error) {
	var result []Event
	err := db.Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return result, nil
}

// AllEvents loads the full event history ordered by time.
func AllEvents(db *gorm.DB) ([]Event, error) {
	var result []Event
	if err := db.Order("timestamp ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return result, nil
}
