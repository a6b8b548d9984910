package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pagegen"
	"github.com/yungbote/quizpages/internal/seed"
)

// Pages is the generator surface the admin commands drive.
type Pages interface {
	FullResync(ctx context.Context) (pagegen.Summary, error)
	Sweep(ctx context.Context) (pagegen.Summary, error)
	Reconcile(ctx context.Context, key pagegen.Key) pagegen.Outcome
	ReconcileSlugs(ctx context.Context, scopeSlug, categorySlug string) (pagegen.Outcome, error)
	KeyForSlugs(ctx context.Context, scopeSlug, categorySlug string) (pagegen.Key, error)
	EnabledScopes(ctx context.Context) ([]*types.Scope, error)
	SetEnabledScopes(ctx context.Context, ids []uuid.UUID) (pagegen.Summary, error)
	HoldSync(ctx context.Context, ttl time.Duration) error
	ReleaseHold(ctx context.Context) error
	Status(ctx context.Context) (pagegen.Status, error)
}

type Seeder interface {
	Import(ctx context.Context, f *seed.Fixture) (seed.Result, error)
}

// Bootstrap wires the services on first use and returns a cleanup func.
type Bootstrap func() (Pages, Seeder, func(), error)

var (
	pagesService Pages
	seedService  Seeder
	bootstrap    Bootstrap
	cleanup      func()

	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:           "pagesctl",
	Short:         "Administer generated quiz pages",
	Long:          `Runs page generation maintenance against the configured database and marker store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if pagesService != nil || bootstrap == nil {
			return nil
		}
		p, s, done, err := bootstrap()
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		pagesService, seedService, cleanup = p, s, done
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")
}

// Execute runs the root command with services built by boot.
func Execute(boot Bootstrap) error {
	bootstrap = boot
	return rootCmd.Execute()
}

func requirePages() error {
	if pagesService == nil {
		return errors.New("page service not configured")
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printSummary(cmd *cobra.Command, label string, s pagegen.Summary) error {
	if outputJSON {
		return printJSON(cmd, s)
	}
	cmd.Printf("%s: created=%d updated=%d restored=%d retired=%d purged=%d unchanged=%d skipped=%d failed=%d\n",
		label, s.Created, s.Updated, s.Restored, s.Retired, s.Purged, s.Unchanged, s.Skipped, s.Failed)
	for _, e := range s.Errors {
		cmd.Printf("  %s: %s\n", e.Key, e.Error)
	}
	return nil
}
