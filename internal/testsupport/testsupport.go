package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"makersight/internal/ads"
	"makersight/internal/config"
	"makersight/internal/events"
	"makersight/internal/searchconsole"
	"makersight/internal/sessions"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with makersight's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all makersight models for migration
func allModels() []any {
	return []any{
		&events.Event{},
		&sessions.Record{},
		&ads.Row{},
		&searchconsole.Row{},
	}
}

// SetupTestDB creates a test database with all makersight models migrated.
// Uses a named in-memory database with cache=shared to allow multiple connections
// to share the same database within a test. Caches the database by test name
// so multiple calls within the same test return the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use root test name for caching to handle closure issues where
	// setup functions capture the outer t while t.Run has subtest t
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	// cache=shared allows multiple connections to the same database
	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// TestConfig returns a validated configuration with default thresholds for
// use in engine tests, detached from the process-wide singleton.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		AppName:                    "makersight",
		Environment:                config.Test,
		LogLevel:                   config.LogLevelError,
		Level2MinPageViews:         2,
		Level2MinEngagementSeconds: 60,
		Level4MinSearches:          1,
		Level4MinProductsViewed:    3,
		HighIntentCutoff:           5,
		MinSupport:                 5,
		MinWindowSessions:          5,
		WindowDays:                 []int{7, 30, 90, 365},
		TopCountries:               5,
		TopTerms:                   5,
		MinTrainingPositives:       10,
		LogitIterations:            500,
		LogitLearningRate:          0.1,
		WorkerCount:                4,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("testsupport: invalid test configuration: %v", err)
	}
	return cfg
}

// MakeEvent builds a raw event for testing. Params may be nil.
func MakeEvent(sessionID, name string, timestamp time.Time, params map[string]string) events.Event {
	return events.Event{
		SessionID:      sessionID,
		UserPseudoID:   "user-" + sessionID,
		Name:           name,
		Country:        "US",
		DeviceCategory: "desktop",
		TrafficSource:  "google",
		TrafficMedium:  "organic",
		ParamsJSON:     events.EncodeParams(params),
		Timestamp:      timestamp,
		CreatedAt:      time.Now().UTC(),
	}
}

// MakeSession builds a session record with sensible defaults; the mutate
// callback adjusts individual fields per test case.
func MakeSession(sessionID string, firstEvent time.Time, mutate func(*sessions.Record)) sessions.Record {
	rec := sessions.Record{
		SessionID:      sessionID,
		UserPseudoID:   "user-" + sessionID,
		Country:        "US",
		DeviceCategory: "desktop",
		TrafficSource:  "google",
		TrafficMedium:  "organic",
		PageViews:      1,
		FirstEventTime: firstEvent,
		LastEventTime:  firstEvent,
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}
