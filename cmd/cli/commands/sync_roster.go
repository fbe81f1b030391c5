package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shopduty/pkg/core/services"
)

// SyncRosterCmd creates the syncRoster command
func SyncRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "syncRoster",
		Short: "Ensure the Roving shop exists and refresh which shops each staff member can work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.SyncRoster(app.Ctx, app.Database, app.Cfg, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to sync roster: %w", err)
			}

			switch {
			case result.RovingCreated:
				fmt.Printf("\nCreated Roving shop %q (%s)\n", result.RovingShop.Name, result.RovingShop.ID)
			case result.RovingReactivated:
				fmt.Printf("\nReactivated Roving shop %q\n", result.RovingShop.Name)
			}

			fmt.Printf("\n✅ Roster synced: %d updated, %d unchanged\n\n", len(result.Updated), result.Unchanged)
			return nil
		},
	}
}
