package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"makersight/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := config.GetConfig()

	fmt.Println("  [General]")
	fmt.Printf("    App name:     %s\n", cfg.AppName)
	fmt.Printf("    Environment:  %s\n", cfg.Environment)
	fmt.Printf("    Log level:    %s\n", cfg.LogLevel)
	fmt.Printf("    Database:     %s\n", cfg.GetDatabasePath())
	fmt.Printf("    Snapshot:     %s\n", cfg.SnapshotPath)
	fmt.Println()

	fmt.Println("  [Classifier]")
	fmt.Printf("    L2 min page views:        %d\n", cfg.Level2MinPageViews)
	fmt.Printf("    L2 min engagement (s):    %d\n", cfg.Level2MinEngagementSeconds)
	fmt.Printf("    L4 min searches:          %d\n", cfg.Level4MinSearches)
	fmt.Printf("    L4 min products viewed:   %d\n", cfg.Level4MinProductsViewed)
	fmt.Printf("    High-intent cutoff:       %d\n", cfg.HighIntentCutoff)
	fmt.Println()

	fmt.Println("  [Statistics]")
	fmt.Printf("    Min support:              %d\n", cfg.MinSupport)
	fmt.Printf("    Min window sessions:      %d\n", cfg.MinWindowSessions)
	fmt.Printf("    Window lengths (days):    %v\n", cfg.WindowDays)
	fmt.Printf("    Top countries:            %d\n", cfg.TopCountries)
	fmt.Printf("    Top terms:                %d\n", cfg.TopTerms)
	fmt.Printf("    Min training positives:   %d\n", cfg.MinTrainingPositives)
	fmt.Printf("    Worker count:             %d\n", cfg.WorkerCount)

	return nil
}
