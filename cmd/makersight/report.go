package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"makersight/internal/ads"
	"makersight/internal/events"
	"makersight/internal/lift"
	"makersight/internal/pkg/async"
	"makersight/internal/searchconsole"
	"makersight/internal/sessions"
	"makersight/internal/snapshot"
	"makersight/internal/windows"
)

var (
	flagAsOf string
	flagOut  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the metrics snapshot from ingested data",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagAsOf, "as-of", "", "Report cutoff date, YYYY-MM-DD (default: now)")
	reportCmd.Flags().StringVar(&flagOut, "out", "", "Snapshot output path (default: configured snapshot path)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, logger, dbManager, err := setup()
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	if flagAsOf != "" {
		parsed, err := time.Parse("2006-01-02", flagAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q: %w", flagAsOf, err)
		}
		// The cutoff is exclusive, so a date means "through the end of the
		// previous day"; midnight of the following day keeps the named day in.
		asOf = parsed.UTC().AddDate(0, 0, 1)
	}

	db := dbManager.GetConnection()

	rawEvents, err := events.AllEvents(db)
	if err != nil {
		return err
	}

	aggregated, diag := sessions.Aggregate(rawEvents)
	history := sessions.Sorted(aggregated)
	if err := sessions.Rebuild(dbManager, logger, history); err != nil {
		return err
	}

	signals := append(lift.BuiltinSignals(), lift.CategoricalSignals(history, cfg.TopCountries)...)
	liftReport := lift.Compute(history, signals, cfg)

	pool := async.NewPool(cfg.WorkerCount)
	sessionWindows, err := windows.Compute(cmd.Context(), pool, history,
		windows.CoverageStart(history), asOf, cfg)
	if err != nil {
		return err
	}

	adsRows, err := ads.All(db)
	if err != nil {
		return err
	}
	gscRows, err := searchconsole.All(db)
	if err != nil {
		return err
	}

	built := snapshot.Build(snapshot.BuildInput{
		AsOf:           asOf,
		History:        history,
		Events:         rawEvents,
		Lift:           liftReport,
		SessionWindows: sessionWindows,
		AdsWindows:     ads.ComputeWindows(adsRows, asOf, cfg),
		SearchWindows:  searchconsole.ComputeWindows(gscRows, asOf, cfg),
		Diagnostics: snapshot.Diagnostics{
			RejectedEvents:     diag.RejectedEvents,
			DeduplicatedEvents: diag.DeduplicatedEvents,
		},
	}, cfg)

	out := flagOut
	if out == "" {
		out = cfg.SnapshotPath
	}
	if err := built.WriteFile(out); err != nil {
		return err
	}

	fmt.Printf("snapshot %s written to %s (%d sessions)\n", built.RunID, out, built.TotalSessions)
	return nil
}
