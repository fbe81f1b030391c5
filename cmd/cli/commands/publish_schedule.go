package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/services"
)

// PublishScheduleCmd creates the publishSchedule command
func PublishScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishSchedule [week_start]",
		Short: "Publish a generated week and export it to Google Sheets",
		Long:  "Publish a generated week. When publishSheetID is configured the week is also written to its own tab.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var weekArg string
			if len(args) > 0 {
				weekArg = args[0]
			}
			weekStart, err := parseWeek(app, weekArg)
			if err != nil {
				return err
			}
			actor, _ := cmd.Flags().GetString("actor")

			app.Logger.Debug("publishSchedule command", zap.String("week_start", weekStart.Format(model.DateLayout)))

			exporter, err := weekExporter(app)
			if err != nil {
				return err
			}

			result, err := services.PublishSchedule(app.Ctx, app.Database, exporter, app.Cfg, app.Logger, weekStart, actor)
			if err != nil {
				return fmt.Errorf("failed to publish schedule: %w", err)
			}

			fmt.Printf("\n✅ Week of %s published (%d shifts)\n", weekStart.Format("Mon Jan 02 2006"), result.Shifts)
			if result.Exported {
				fmt.Printf("Sheet ID: %s\n", app.Cfg.PublishSheetID)
				fmt.Printf("Tab:      %s\n", result.TabTitle)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("actor", "", "Staff ID recorded in the change log")

	return cmd
}

// weekExporter returns nil when export is not configured
func weekExporter(app *AppContext) (services.WeekExporter, error) {
	client, err := app.SheetsClient()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	return client, nil
}
