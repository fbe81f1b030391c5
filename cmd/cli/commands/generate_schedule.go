package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/services"
)

// GenerateScheduleCmd creates the generateSchedule command
func GenerateScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateSchedule [week_start]",
		Short: "Generate shifts for one or more consecutive weeks",
		Long: `Generate main and stand-by shifts starting at the given Monday (defaults to next week).
Existing shifts for the shops in scope are replaced. Published weeks are logged as regenerated.`,
		Args: cobra.MaximumNArgs(1),
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
			shopIDs, _ := cmd.Flags().GetStringSlice("shop")
			seed, _ := cmd.Flags().GetUint64("seed")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			actor, _ := cmd.Flags().GetString("actor")

			if seed == 0 {
				seed = app.Cfg.RandomSeed
			}

			app.Logger.Debug("generateSchedule command",
				zap.String("week_start", weekStart.Format(model.DateLayout)),
				zap.Int("weeks", weeks),
				zap.Strings("shop_ids", shopIDs),
				zap.Bool("dry_run", dryRun))

			result, err := services.GenerateSchedules(app.Ctx, app.Database, app.Cfg, app.Logger, services.GenerateOptions{
				ShopIDs:   shopIDs,
				WeekStart: weekStart,
				Weeks:     weeks,
				Actor:     actor,
				Rand:      services.NewRand(seed),
				DryRun:    dryRun,
			})
			if err != nil {
				return fmt.Errorf("failed to generate schedules: %w", err)
			}

			names, err := staffNameLookup(app)
			if err != nil {
				return err
			}

			if result.DryRun {
				fmt.Printf("\n🧪 Dry run - nothing was saved\n")
			}

			for _, week := range result.Weeks {
				fmt.Printf("\n📅 Week of %s", week.Schedule.WeekStartDate.Format("Mon Jan 02 2006"))
				if week.Regenerated {
					fmt.Printf(" (regenerated)")
				}
				fmt.Println()
				printWeek(week.Shifts, names)

				if len(week.Unfilled) > 0 {
					fmt.Printf("  ⚠️  %d duty slot(s) left unfilled\n", len(week.Unfilled))
				}
			}

			fmt.Println()
			printReport(result.Report)
			return nil
		},
	}

	cmd.Flags().Int("weeks", 0, "Number of consecutive weeks (defaults to weeksAhead from config)")
	cmd.Flags().StringSlice("shop", nil, "Limit regeneration to these shop IDs")
	cmd.Flags().Uint64("seed", 0, "Seed for tie-breaks (defaults to randomSeed from config)")
	cmd.Flags().Bool("dry-run", false, "Generate without saving to the database")
	cmd.Flags().String("actor", "", "Staff ID recorded in the change log")

	return cmd
}

func staffNameLookup(app *AppContext) (map[string]string, error) {
	staff, err := app.Database.ListStaff(app.Ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return model.StaffNames(staff), nil
}

// printWeek prints one line per date: mains grouped by shop, then stand-by
func printWeek(shifts []model.Shift, names map[string]string) {
	type day struct {
		mains   map[string][]string
		standby []string
	}

	var dates []string
	days := make(map[string]*day)
	for _, s := range shifts {
		key := s.Date.Format(model.DateLayout)
		d, ok := days[key]
		if !ok {
			d = &day{mains: make(map[string][]string)}
			days[key] = d
			dates = append(dates, key)
		}
		name := names[s.StaffID]
		if name == "" {
			name = s.StaffID
		}
		if s.Role == model.RoleBackup {
			d.standby = append(d.standby, name)
			continue
		}
		d.mains[s.ShopID] = append(d.mains[s.ShopID], name)
	}
	sort.Strings(dates)

	for _, key := range dates {
		d := days[key]
		shops := make([]string, 0, len(d.mains))
		for shopID := range d.mains {
			shops = append(shops, shopID)
		}
		sort.Strings(shops)

		parts := make([]string, 0, len(shops))
		for _, shopID := range shops {
			parts = append(parts, fmt.Sprintf("%s: %s", shopID, strings.Join(d.mains[shopID], ", ")))
		}
		date, _ := model.ParseDate(key)
		fmt.Printf("  %-10s  %s\n", date.Format("Mon 02 Jan"), strings.Join(parts, " | "))
		if len(d.standby) > 0 {
			fmt.Printf("  %-10s  stand-by: %s\n", "", strings.Join(d.standby, ", "))
		}
	}
}
