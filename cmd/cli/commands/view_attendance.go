package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/services"
)

const colorYellow = "\033[33m"

// ViewAttendanceCmd creates the viewAttendance command
func ViewAttendanceCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewAttendance <week_start>",
		Short: "Compare a week's shifts with who actually clocked in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := parseWeek(app, args[0])
			if err != nil {
				return err
			}

			app.Logger.Debug("viewAttendance command", zap.String("week_start", weekStart.Format(model.DateLayout)))

			view, err := services.BuildAttendanceView(app.Ctx, app.Database, app.Logger, weekStart)
			if err != nil {
				return fmt.Errorf("failed to build attendance view: %w", err)
			}

			fmt.Printf("\n📋 Attendance for week of %s\n\n", weekStart.Format("Mon Jan 02 2006"))
			fmt.Printf("%-10s  %-24s  %-16s  %-12s  %-11s\n", "Date", "Staff", "Shop", "Status", "Clocked")
			fmt.Println("----------  ------------------------  ----------------  ------------  -----------")

			for _, row := range view.Rows {
				fmt.Printf("%-10s  %-24s  %-16s  %s%-12s%s  %-11s\n",
					row.Date.Format("Mon 02 Jan"),
					row.StaffName,
					row.ShopName,
					statusColor(row.Status), row.Status, colorReset,
					clockedRange(row.TimeIn, row.TimeOut))
			}

			fmt.Println()
			fmt.Printf("Worked: %d  Absent: %d  Substituted: %d  Stand-by: %d  Supplement: %d\n\n",
				view.Counts[services.StatusWorked],
				view.Counts[services.StatusAbsent],
				view.Counts[services.StatusSubstituted],
				view.Counts[services.StatusStandby],
				view.Counts[services.StatusSupplement])
			return nil
		},
	}
}

func statusColor(status services.AttendanceStatus) string {
	switch status {
	case services.StatusWorked, services.StatusSubstituted:
		return colorGreen
	case services.StatusAbsent:
		return colorRed
	case services.StatusSupplement:
		return colorYellow
	default:
		return colorDim
	}
}

func clockedRange(timeIn, timeOut *time.Time) string {
	if timeIn == nil {
		return "—"
	}
	if timeOut == nil {
		return timeIn.Format("15:04") + "-"
	}
	return timeIn.Format("15:04") + "-" + timeOut.Format("15:04")
}
