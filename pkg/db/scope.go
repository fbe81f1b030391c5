package db

import "github.com/jakechorley/shopduty/pkg/core/model"

// ReplaceScope selects the shifts a regeneration deletes
type ReplaceScope struct {
	// ShopIDs are the shops being regenerated; every shift at them is replaced
	ShopIDs []string

	// Backups also replaces every backup shift, wherever it is recorded
	Backups bool
}

// Matches reports whether shift falls inside the scope
func (s ReplaceScope) Matches(shift model.Shift) bool {
	if s.Backups && shift.Role == model.RoleBackup {
		return true
	}
	for _, shopID := range s.ShopIDs {
		if shift.ShopID == shopID {
			return true
		}
	}
	return false
}
