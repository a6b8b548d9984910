package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/quizpages/internal/pagegen"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full resync now",
	Long: `Sweeps stale documents, then reconciles every known key and flushes the route table.
Fails if another resync holds the lease or seeding holds sync.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Retire documents whose keys are no longer eligible",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

var (
	reconcileScope    string
	reconcileCategory string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [key]",
	Short: "Reconcile a single key",
	Long: `Reconciles one key, given either in its string form
(category/<id>, scope/<id>, scope/<id>/category/<id>) or by --scope and --category slugs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileScope, "scope", "", "scope slug")
	reconcileCmd.Flags().StringVar(&reconcileCategory, "category", "", "category slug")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	sum, err := pagesService.FullResync(context.Background())
	switch {
	case errors.Is(err, pagegen.ErrResyncInProgress):
		return errors.New("another full resync is running")
	case errors.Is(err, pagegen.ErrSyncHeld):
		return errors.New("sync is held; run `pagesctl release` first")
	case err != nil:
		return fmt.Errorf("sync failed: %w", err)
	}
	return printSummary(cmd, "sync", sum)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	sum, err := pagesService.Sweep(context.Background())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	return printSummary(cmd, "sweep", sum)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	ctx := context.Background()
	var out pagegen.Outcome
	if len(args) == 1 {
		key, err := pagegen.ParseKey(args[0])
		if err != nil {
			return err
		}
		out = pagesService.Reconcile(ctx, key)
	} else {
		var err error
		out, err = pagesService.ReconcileSlugs(ctx, reconcileScope, reconcileCategory)
		if err != nil {
			return fmt.Errorf("reconcile failed: %w", err)
		}
	}
	if out.Err != nil {
		return fmt.Errorf("reconcile %s: %w", out.Key, out.Err)
	}
	if outputJSON {
		return printJSON(cmd, map[string]any{
			"key":         out.Key.String(),
			"action":      out.Action,
			"reason":      out.Reason,
			"document_id": out.DocumentID,
		})
	}
	cmd.Printf("%s: %s", out.Key, out.Action)
	if out.Reason != "" {
		cmd.Printf(" (%s)", out.Reason)
	}
	cmd.Println()
	return nil
}
