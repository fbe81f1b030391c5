package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/internal/config"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/scheduler"
	"github.com/jakechorley/shopduty/pkg/db"
)

// SyncRosterStore defines the database operations needed by the roster sync
type SyncRosterStore interface {
	db.DirectoryStore
	db.RosterStore
}

// SyncRosterResult summarises the changes made by a roster sync
type SyncRosterResult struct {
	RovingShop        model.Shop
	RovingCreated     bool
	RovingReactivated bool

	// Updated lists staff whose applicable shops changed
	Updated   []string
	Unchanged int
}

// SyncRoster makes sure the Roving shop exists and is active, then resets
// applicable shops: supervisors may only work Roving, regulars may work every
// active non-Roving shop. Administrators are never changed.
func SyncRoster(ctx context.Context, store SyncRosterStore, cfg *config.Config, logger *zap.Logger) (*SyncRosterResult, error) {
	shops, err := store.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	result := &SyncRosterResult{}

	roving, err := scheduler.FindRovingShop(shops)
	switch {
	case errors.Is(err, scheduler.ErrMissingRovingShop):
		roving = model.Shop{
			ID:          uuid.New().String(),
			Name:        cfg.RovingShopName,
			Active:      true,
			IsRoving:    true,
			Requirement: model.DefaultRequirement,
		}
		if err := store.CreateShop(ctx, roving); err != nil {
			return nil, fmt.Errorf("failed to create roving shop: %w", err)
		}
		logger.Info("Created roving shop", zap.String("shop_id", roving.ID), zap.String("name", roving.Name))
		result.RovingCreated = true
	case err != nil:
		return nil, err
	case !roving.Active:
		if err := store.SetShopActive(ctx, roving.ID, true); err != nil {
			return nil, fmt.Errorf("failed to reactivate roving shop: %w", err)
		}
		roving.Active = true
		logger.Info("Reactivated roving shop", zap.String("shop_id", roving.ID))
		result.RovingReactivated = true
	}
	result.RovingShop = roving

	var shopIDs []string
	for _, shop := range shops {
		if shop.Active && !shop.IsRoving {
			shopIDs = append(shopIDs, shop.ID)
		}
	}

	staff, err := store.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}

	for _, s := range staff {
		var want []string
		switch s.Tier {
		case model.TierSupervisor:
			want = []string{roving.ID}
		case model.TierRegular:
			want = shopIDs
		default:
			continue
		}

		if sameSet(s.ApplicableShopIDs, want) {
			result.Unchanged++
			continue
		}

		if err := store.SetApplicableShops(ctx, s.ID, want); err != nil {
			return nil, fmt.Errorf("failed to set applicable shops for %s: %w", s.ID, err)
		}
		logger.Debug("Updated applicable shops",
			zap.String("staff_id", s.ID),
			zap.String("tier", string(s.Tier)),
			zap.Int("shops", len(want)))
		result.Updated = append(result.Updated, s.ID)
	}

	logger.Info("Roster synced",
		zap.Int("updated", len(result.Updated)),
		zap.Int("unchanged", result.Unchanged))

	return result, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
