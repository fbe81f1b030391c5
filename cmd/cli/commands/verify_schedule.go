package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/scheduler"
	"github.com/jakechorley/shopduty/pkg/core/services"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorDim   = "\033[2m"
)

// VerifyScheduleCmd creates the verifySchedule command
func VerifyScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verifySchedule [week_start]",
		Short: "Check stored weeks against the scheduling rules",
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

			weeks, _ := cmd.Flags().GetInt("weeks")
			if weeks == 0 {
				weeks = app.Cfg.WeeksAhead
			}

			app.Logger.Debug("verifySchedule command",
				zap.String("week_start", weekStart.Format(model.DateLayout)),
				zap.Int("weeks", weeks))

			result, err := services.VerifySchedules(app.Ctx, app.Database, app.Logger, weekStart, weeks)
			if err != nil {
				return fmt.Errorf("failed to verify schedules: %w", err)
			}

			fmt.Printf("\nVerified %d week(s)\n", len(result.Verified))
			for _, missing := range result.Missing {
				fmt.Printf("  %sNo schedule for week of %s%s\n", colorDim, missing.Format(model.DateLayout), colorReset)
			}
			fmt.Println()

			printReport(result.Report)

			verbose, _ := cmd.Flags().GetBool("violations")
			if verbose {
				printViolations(result.Report.Violations)
			}
			return nil
		},
	}

	cmd.Flags().Int("weeks", 0, "Number of consecutive weeks (defaults to weeksAhead from config)")
	cmd.Flags().Bool("violations", false, "List every violation found")

	return cmd
}

// checkLine returns a coloured pass/fail line for one check
func checkLine(name string, passed bool) string {
	if passed {
		return fmt.Sprintf("  %s✓ %s%s", colorGreen, name, colorReset)
	}
	return fmt.Sprintf("  %s✗ %s%s", colorRed, name, colorReset)
}

func printReport(report scheduler.Report) {
	fmt.Println("Checks:")
	fmt.Println(checkLine(scheduler.CheckCoverage, report.Coverage))
	fmt.Println(checkLine(scheduler.CheckWorkloadBalance, report.WorkloadBalance))
	fmt.Println(checkLine(scheduler.CheckReserveCoverage, report.ReserveCoverage))
	fmt.Println(checkLine(scheduler.CheckPreference, report.PreferenceRespected))
	fmt.Println(checkLine(scheduler.CheckShopStability, report.ShopStability))
	fmt.Println(checkLine(scheduler.CheckRotation, report.Rotation))
	fmt.Println()
}

func printViolations(violations []scheduler.Violation) {
	if len(violations) == 0 {
		return
	}
	fmt.Printf("Violations (%d):\n", len(violations))
	for _, v := range violations {
		when := v.WeekStart.Format(model.DateLayout)
		if !v.Date.IsZero() {
			when = v.Date.Format(model.DateLayout)
		}
		fmt.Printf("  %-20s %s  %s\n", v.Check, when, v.Description)
	}
	fmt.Println()
}
