package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"makersight/internal/ads"
	"makersight/internal/events"
	"makersight/internal/searchconsole"
)

var (
	flagEventsFile string
	flagAdsFile    string
	flagGSCFile    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest CSV exports into the local database",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&flagEventsFile, "events", "", "Web-analytics events export (CSV)")
	ingestCmd.Flags().StringVar(&flagAdsFile, "ads", "", "Ad-platform performance export (CSV)")
	ingestCmd.Flags().StringVar(&flagGSCFile, "gsc", "", "Search-console query export (CSV)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	if flagEventsFile == "" && flagAdsFile == "" && flagGSCFile == "" {
		return fmt.Errorf("nothing to ingest: pass at least one of --events, --ads, --gsc")
	}

	_, logger, dbManager, err := setup()
	if err != nil {
		return err
	}

	if flagEventsFile != "" {
		file, err := os.Open(flagEventsFile)
		if err != nil {
			return fmt.Errorf("failed to open events export: %w", err)
		}
		result, err := events.IngestCSV(dbManager, logger, file)
		file.Close()
		if err != nil {
			return err
		}
		fmt.Printf("events: %d inserted, %d rejected, %d deduplicated\n",
			result.Inserted, result.Rejected, result.Deduplicated)
	}

	if flagAdsFile != "" {
		file, err := os.Open(flagAdsFile)
		if err != nil {
			return fmt.Errorf("failed to open ads export: %w", err)
		}
		result, err := ads.IngestCSV(dbManager, logger, file)
		file.Close()
		if err != nil {
			return err
		}
		fmt.Printf("ads: %d inserted, %d rejected\n", result.Inserted, result.Rejected)
	}

	if flagGSCFile != "" {
		file, err := os.Open(flagGSCFile)
		if err != nil {
			return fmt.Errorf("failed to open search-console export: %w", err)
		}
		result, err := searchconsole.IngestCSV(dbManager, logger, file)
		file.Close()
		if err != nil {
			return err
		}
		fmt.Printf("search console: %d inserted, %d rejected\n", result.Inserted, result.Rejected)
	}

	return nil
}
