package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/quizpages/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed [fixture.yaml]",
	Short: "Import a classification fixture and resync",
	Long: `Imports categories, scopes, items and quiz configs from a YAML fixture with sync
held, then enables the fixture's scopes and runs a full resync.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedService == nil {
		return errors.New("seed service not configured")
	}
	f, err := seed.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}
	res, err := seedService.Import(context.Background(), f)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	if outputJSON {
		return printJSON(cmd, res)
	}
	cmd.Printf("Imported %d categories, %d scopes, %d items, %d quiz configs.\n",
		res.Categories, res.Scopes, res.Items, res.QuizConfigs)
	return printSummary(cmd, "sync", res.Sync)
}
