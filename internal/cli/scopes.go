package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/quizpages/internal/pagegen"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "Manage the enabled scope list",
}

var scopesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled scopes",
	Args:  cobra.NoArgs,
	RunE:  runScopesList,
}

var scopesEnableCmd = &cobra.Command{
	Use:   "enable [scope-slug...]",
	Short: "Enable scopes by slug",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScopesEnable,
}

var scopesDisableCmd = &cobra.Command{
	Use:   "disable [scope-slug...]",
	Short: "Disable scopes by slug",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScopesDisable,
}

func init() {
	scopesCmd.AddCommand(scopesListCmd)
	scopesCmd.AddCommand(scopesEnableCmd)
	scopesCmd.AddCommand(scopesDisableCmd)
	rootCmd.AddCommand(scopesCmd)
}

func runScopesList(cmd *cobra.Command, _ []string) error {
	if err := requirePages(); err != nil {
		return err
	}
	scopes, err := pagesService.EnabledScopes(context.Background())
	if err != nil {
		return fmt.Errorf("list scopes: %w", err)
	}
	if outputJSON {
		return printJSON(cmd, scopes)
	}
	if len(scopes) == 0 {
		cmd.Println("No scopes enabled.")
		return nil
	}
	for _, s := range scopes {
		cmd.Printf("%s\t%s\t%s\n", s.Slug, s.Name, s.ID)
	}
	return nil
}

func runScopesEnable(cmd *cobra.Command, args []string) error {
	return updateScopes(cmd, args, true)
}

func runScopesDisable(cmd *cobra.Command, args []string) error {
	return updateScopes(cmd, args, false)
}

func updateScopes(cmd *cobra.Command, slugs []string, enable bool) error {
	if err := requirePages(); err != nil {
		return err
	}
	ctx := context.Background()
	targets := make(map[uuid.UUID]bool, len(slugs))
	var order []uuid.UUID
	for _, slug := range slugs {
		key, err := pagesService.KeyForSlugs(ctx, slug, "")
		if err != nil {
			return fmt.Errorf("scope %q: %w", slug, err)
		}
		sk, ok := key.(pagegen.ScopeKey)
		if !ok {
			return fmt.Errorf("scope %q: unexpected key %s", slug, key)
		}
		if !targets[sk.ScopeID] {
			targets[sk.ScopeID] = true
			order = append(order, sk.ScopeID)
		}
	}
	current, err := pagesService.EnabledScopes(ctx)
	if err != nil {
		return fmt.Errorf("list scopes: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(current)+len(order))
	present := make(map[uuid.UUID]bool, len(current))
	for _, s := range current {
		if !enable && targets[s.ID] {
			continue
		}
		ids = append(ids, s.ID)
		present[s.ID] = true
	}
	if enable {
		for _, id := range order {
			if !present[id] {
				ids = append(ids, id)
			}
		}
	}
	sum, err := pagesService.SetEnabledScopes(ctx, ids)
	if err != nil {
		return fmt.Errorf("update scopes: %w", err)
	}
	return printSummary(cmd, "scopes", sum)
}
