package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/internal/config"
	"github.com/jakechorley/shopduty/pkg/clients/sheetsclient"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context
	Env      string

	// sheetsClient is created on first use so commands that never export do
	// not trigger the OAuth flow
	sheetsClient *sheetsclient.Client
}

// SheetsClient returns the Sheets client, or nil when no sheet is configured
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.Cfg.PublishSheetID == "" {
		return nil, nil
	}
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}

	oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	app.Logger.Debug("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	app.sheetsClient = client
	return client, nil
}

// parseWeek parses a YYYY-MM-DD Monday argument, or returns next week's
// Monday when arg is empty
func parseWeek(app *AppContext, arg string) (time.Time, error) {
	if arg == "" {
		today := model.Date(time.Now().In(app.Cfg.Location()))
		return model.WeekStart(today).AddDate(0, 0, 7), nil
	}

	week, err := model.ParseDate(arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("week must be YYYY-MM-DD: %w", err)
	}
	if !model.IsWeekStart(week) {
		return time.Time{}, fmt.Errorf("week %s is not a Monday", arg)
	}
	return week, nil
}
