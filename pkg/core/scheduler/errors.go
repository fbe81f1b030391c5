package scheduler

import (
	"errors"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

var (
	// ErrMissingRovingShop means the roster sync has not created the Roving shop.
	// Generation cannot proceed without it because the standby pool lives there.
	ErrMissingRovingShop = errors.New("roving shop not found")

	// ErrNoShops means the regeneration scope resolved to no schedulable shop
	ErrNoShops = errors.New("no shops in scope")
)

// FindRovingShop returns the shop flagged as Roving
func FindRovingShop(shops []model.Shop) (model.Shop, error) {
	for _, shop := range shops {
		if shop.IsRoving {
			return shop, nil
		}
	}
	return model.Shop{}, ErrMissingRovingShop
}
