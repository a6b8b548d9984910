package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var holdTTL time.Duration

var holdCmd = &cobra.Command{
	Use:   "hold",
	Short: "Hold sweeps and full resyncs",
	Long: `Sets the seed hold so garbage collection and full resyncs stay off while
classification data is being imported. Without --ttl the configured default applies.`,
	Args: cobra.NoArgs,
	RunE: runHold,
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the seed hold",
	Args:  cobra.NoArgs,
	RunE:  runRelease,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	holdCmd.Flags().DurationVar(&holdTTL, "ttl", 0, "how long the hold lasts")
	rootCmd.AddCommand(holdCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(statusCmd)
}

func runHold(cmd *cobra.Command, _ []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	if holdTTL < 0 {
		return fmt.Errorf("--ttl must not be negative")
	}
	if err := pagesService.HoldSync(context.Background(), holdTTL); err != nil {
		return fmt.Errorf("hold failed: %w", err)
	}
	cmd.Println("Sync held.")
	return nil
}

func runRelease(cmd *cobra.Command, _ []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	if err := pagesService.ReleaseHold(context.Background()); err != nil {
		return fmt.Errorf("release failed: %w", err)
	}
	cmd.Println("Sync hold released.")
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	st, err := pagesService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	if outputJSON {
		return printJSON(cmd, st)
	}
	last := "never"
	if st.LastFullSync != nil {
		last = st.LastFullSync.Format(time.RFC3339)
	}
	cmd.Printf("Last full sync:   %s\n", last)
	if st.Held {
		cmd.Printf("Held:             yes (%s left)\n", st.HoldRemaining)
	} else {
		cmd.Println("Held:             no")
	}
	cmd.Printf("Resync running:   %t\n", st.ResyncRunning)
	cmd.Printf("Enabled scopes:   %d\n", len(st.EnabledScopes))
	cmd.Printf("Active documents: %d (%d soft-deleted)\n", st.ActiveDocuments, st.SoftDeleted)
	cmd.Printf("Route generation: %d\n", st.RouteGeneration)
	return nil
}
