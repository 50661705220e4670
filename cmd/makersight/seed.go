package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"makersight/internal/seeder"
)

var flagSeedSessions int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo sessions for local exploration",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&flagSeedSessions, "sessions", 500, "Number of demo sessions to generate")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	_, logger, dbManager, err := setup()
	if err != nil {
		return err
	}

	s := seeder.NewSeeder(dbManager, logger, flagSeedSessions)
	if err := s.Seed(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("seeded %d demo sessions\n", flagSeedSessions)
	return nil
}
