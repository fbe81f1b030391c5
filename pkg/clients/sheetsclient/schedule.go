package sheetsclient

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

const (
	tabTitleLayout = "Mon Jan 02 2006"
	standbyHeader  = "Stand-by"
)

// WeekExport is a published week ready to be written to a spreadsheet
type WeekExport struct {
	WeekStart time.Time
	// Shops gives the column order; the Roving shop is normally included
	Shops  []model.Shop
	Staff  []model.Staff
	Shifts []model.Shift
}

// TabTitle returns the tab name for the week starting weekStart
func TabTitle(weekStart time.Time) string {
	return "Week of " + weekStart.Format(tabTitleLayout)
}

// BuildWeekValues lays the week out as a header row followed by one row per
// date. Each shop column lists the main staff on that date and the final
// column lists backups in standby rank order.
func BuildWeekValues(week *WeekExport) [][]interface{} {
	names := model.StaffNames(week.Staff)
	nameOf := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	columns := make(map[string]int, len(week.Shops))
	header := []interface{}{"Date"}
	for i, shop := range week.Shops {
		columns[shop.ID] = i
		header = append(header, shop.Name)
	}
	header = append(header, standbyHeader)

	type dayCells struct {
		mains   [][]string
		backups []model.Shift
	}
	days := make(map[string]*dayCells)
	for _, date := range model.WeekDates(week.WeekStart) {
		days[date.Format(model.DateLayout)] = &dayCells{mains: make([][]string, len(week.Shops))}
	}

	for _, shift := range week.Shifts {
		cells, ok := days[shift.Date.Format(model.DateLayout)]
		if !ok {
			continue
		}
		switch shift.Role {
		case model.RoleBackup:
			cells.backups = append(cells.backups, shift)
		default:
			col, ok := columns[shift.ShopID]
			if !ok {
				continue
			}
			cells.mains[col] = append(cells.mains[col], nameOf(shift.StaffID))
		}
	}

	values := [][]interface{}{header}
	for _, date := range model.WeekDates(week.WeekStart) {
		cells := days[date.Format(model.DateLayout)]
		row := []interface{}{date.Format("Mon 02 Jan")}
		for _, mains := range cells.mains {
			sort.Strings(mains)
			row = append(row, strings.Join(mains, ", "))
		}

		sort.SliceStable(cells.backups, func(i, j int) bool {
			return cells.backups[i].Rank < cells.backups[j].Rank
		})
		standby := make([]string, 0, len(cells.backups))
		for _, b := range cells.backups {
			standby = append(standby, nameOf(b.StaffID))
		}
		row = append(row, strings.Join(standby, ", "))

		values = append(values, row)
	}
	return values
}

// PublishWeek writes the week to its own tab, creating the tab when missing
// and overwriting it when the week is republished
func (c *Client) PublishWeek(spreadsheetID string, week *WeekExport) error {
	title := TabTitle(week.WeekStart)

	_, exists, err := c.sheetID(spreadsheetID, title)
	if err != nil {
		return err
	}

	if !exists {
		c.logger.Debug("Creating sheet tab", zap.String("title", title))
		if _, err := c.createSheet(spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab %q: %w", title, err)
		}
	}

	if err := c.replaceValues(spreadsheetID, title, BuildWeekValues(week)); err != nil {
		return fmt.Errorf("failed to write tab %q: %w", title, err)
	}

	c.logger.Info("Exported week to sheet",
		zap.String("tab", title),
		zap.Int("shifts", len(week.Shifts)))
	return nil
}
