// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// MinEngagementLevel and MaxEngagementLevel bound the ordinal hierarchy.
const (
	MinEngagementLevel = 1
	MaxEngagementLevel = 6
)

// Config holds all configuration parameters for the application.
// Every analytical threshold lives here so the engine packages stay free of
// ambient state: entry points receive the config explicitly.
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings
	SnapshotPath string `mapstructure:"snapshotpath"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Engagement classifier thresholds (levels evaluated 6 -> 1)
	Level2MinPageViews         int `mapstructure:"level2minpageviews"`
	Level2MinEngagementSeconds int `mapstructure:"level2minengagementseconds"`
	Level4MinSearches          int `mapstructure:"level4minsearches"`
	Level4MinProductsViewed    int `mapstructure:"level4minproductsviewed"`

	// High-intent labeling cutoff (sessions at or above this level count as valuable)
	HighIntentCutoff int `mapstructure:"highintentcutoff"`

	// Statistical confidence thresholds
	MinSupport        int `mapstructure:"minsupport"`
	MinWindowSessions int `mapstructure:"minwindowsessions"`

	// Windowed delta settings
	WindowDays   []int `mapstructure:"windowdays"`
	TopCountries int   `mapstructure:"topcountries"`
	TopTerms     int   `mapstructure:"topterms"`

	// Logistic-regression feature ranking
	MinTrainingPositives int     `mapstructure:"mintrainingpositives"`
	LogitIterations      int     `mapstructure:"logititerations"`
	LogitLearningRate    float64 `mapstructure:"logitlearningrate"`

	// Worker pool size for parallel window computations
	WorkerCount int `mapstructure:"workercount"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "makersight")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("storagepath", "storage")
		v.SetDefault("snapshotpath", "storage/snapshot.json")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("level2minpageviews", 2)
		v.SetDefault("level2minengagementseconds", 60)
		v.SetDefault("level4minsearches", 1)
		v.SetDefault("level4minproductsviewed", 3)
		v.SetDefault("highintentcutoff", 5)
		v.SetDefault("minsupport", 5)
		v.SetDefault("minwindowsessions", 5)
		v.SetDefault("windowdays", []int{7, 30, 90, 365})
		v.SetDefault("topcountries", 5)
		v.SetDefault("topterms", 5)
		v.SetDefault("mintrainingpositives", 10)
		v.SetDefault("logititerations", 500)
		v.SetDefault("logitlearningrate", 0.1)
		v.SetDefault("workercount", 4)

		// Bind environment variables
		v.BindEnv("appname", "MAKERSIGHT_APP_NAME")
		v.BindEnv("environment", "MAKERSIGHT_ENV")
		v.BindEnv("loglevel", "MAKERSIGHT_LOG_LEVEL")
		v.BindEnv("storagepath", "MAKERSIGHT_STORAGE_PATH")
		v.BindEnv("snapshotpath", "MAKERSIGHT_SNAPSHOT_PATH")
		v.BindEnv("logsdir", "MAKERSIGHT_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "MAKERSIGHT_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "MAKERSIGHT_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "MAKERSIGHT_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "MAKERSIGHT_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "MAKERSIGHT_DB_MAX_IDLE_CONNS")
		v.BindEnv("level2minpageviews", "MAKERSIGHT_LEVEL2_MIN_PAGE_VIEWS")
		v.BindEnv("level2minengagementseconds", "MAKERSIGHT_LEVEL2_MIN_ENGAGEMENT_SECONDS")
		v.BindEnv("level4minsearches", "MAKERSIGHT_LEVEL4_MIN_SEARCHES")
		v.BindEnv("level4minproductsviewed", "MAKERSIGHT_LEVEL4_MIN_PRODUCTS_VIEWED")
		v.BindEnv("highintentcutoff", "MAKERSIGHT_HIGH_INTENT_CUTOFF")
		v.BindEnv("minsupport", "MAKERSIGHT_MIN_SUPPORT")
		v.BindEnv("minwindowsessions", "MAKERSIGHT_MIN_WINDOW_SESSIONS")
		v.BindEnv("windowdays", "MAKERSIGHT_WINDOW_DAYS")
		v.BindEnv("topcountries", "MAKERSIGHT_TOP_COUNTRIES")
		v.BindEnv("topterms", "MAKERSIGHT_TOP_TERMS")
		v.BindEnv("mintrainingpositives", "MAKERSIGHT_MIN_TRAINING_POSITIVES")
		v.BindEnv("logititerations", "MAKERSIGHT_LOGIT_ITERATIONS")
		v.BindEnv("logitlearningrate", "MAKERSIGHT_LOGIT_LEARNING_RATE")
		v.BindEnv("workercount", "MAKERSIGHT_WORKER_COUNT")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		// Validate before anything computes; there is no fallback to defaults
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// Validate checks the configuration for errors. Exported so tests and callers
// holding a hand-built Config fail fast the same way GetConfig does.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.HighIntentCutoff < MinEngagementLevel || c.HighIntentCutoff > MaxEngagementLevel {
		return fmt.Errorf("high-intent cutoff must be between %d and %d, got %d",
			MinEngagementLevel, MaxEngagementLevel, c.HighIntentCutoff)
	}

	if len(c.WindowDays) == 0 {
		return fmt.Errorf("at least one window length is required")
	}
	for _, days := range c.WindowDays {
		if days <= 0 {
			return fmt.Errorf("window length must be positive, got %d", days)
		}
	}

	if c.MinSupport < 1 {
		return fmt.Errorf("minimum support must be at least 1, got %d", c.MinSupport)
	}
	if c.MinWindowSessions < 1 {
		return fmt.Errorf("minimum window sessions must be at least 1, got %d", c.MinWindowSessions)
	}

	if c.Level2MinPageViews < 1 {
		return fmt.Errorf("level 2 minimum page views must be at least 1, got %d", c.Level2MinPageViews)
	}
	if c.Level2MinEngagementSeconds < 0 {
		return fmt.Errorf("level 2 minimum engagement seconds cannot be negative, got %d", c.Level2MinEngagementSeconds)
	}
	if c.Level4MinSearches < 1 {
		return fmt.Errorf("level 4 minimum searches must be at least 1, got %d", c.Level4MinSearches)
	}
	if c.Level4MinProductsViewed < 1 {
		return fmt.Errorf("level 4 minimum products viewed must be at least 1, got %d", c.Level4MinProductsViewed)
	}

	if c.TopCountries < 1 {
		return fmt.Errorf("top countries must be at least 1, got %d", c.TopCountries)
	}
	if c.LogitIterations < 1 {
		return fmt.Errorf("logit iterations must be at least 1, got %d", c.LogitIterations)
	}
	if c.LogitLearningRate <= 0 {
		return fmt.Errorf("logit learning rate must be positive, got %v", c.LogitLearningRate)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.WorkerCount)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// If explicitly set via env var, uses that value.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment.
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
