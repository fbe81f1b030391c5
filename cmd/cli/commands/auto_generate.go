package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shopduty/pkg/core/services"
)

// AutoGenerateCmd creates the autoGenerate command, intended to run daily from cron
func AutoGenerateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoGenerate",
		Short: "Prepare and publish next week on the days selected by autoGenerateRRule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			exporter, err := weekExporter(app)
			if err != nil {
				return err
			}

			result, err := services.AutoGenerate(app.Ctx, app.Database, exporter, app.Cfg, app.Logger, services.AutoGenerateOptions{
				Force: force,
				Rand:  services.NewRand(app.Cfg.RandomSeed),
			})
			if err != nil {
				return fmt.Errorf("auto-generate failed: %w", err)
			}

			week := result.WeekStart.Format("Mon Jan 02 2006")
			switch result.Action {
			case services.ActionSkipped:
				fmt.Println("Nothing to do today")
			case services.ActionUpToDate:
				fmt.Printf("Week of %s is already published\n", week)
			case services.ActionPublished:
				fmt.Printf("✅ Published existing draft for week of %s\n", week)
			case services.ActionGenerated:
				fmt.Printf("✅ Generated and published week of %s\n", week)
				printReport(result.Generate.Report)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Run even if today is not an auto-generate day")

	return cmd
}
