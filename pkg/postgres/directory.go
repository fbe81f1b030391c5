package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

// ListShops retrieves all shops with their requirements. Shops without a
// requirement row get model.DefaultRequirement.
func (d *DB) ListShops(ctx context.Context) ([]model.Shop, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT s.id, s.name, s.active, s.is_roving,
		       COALESCE(r.required_main_staff, $1),
		       COALESCE(r.required_reserve_staff, $2)
		FROM shop s
		LEFT JOIN shop_requirement r ON r.shop_id = s.id
		ORDER BY s.is_roving, s.name
	`, model.DefaultRequirement.MainStaff, model.DefaultRequirement.ReserveStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to query shops: %w", err)
	}
	defer rows.Close()

	var shops []model.Shop
	for rows.Next() {
		var s model.Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Active, &s.IsRoving, &s.Requirement.MainStaff, &s.Requirement.ReserveStaff); err != nil {
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shops: %w", err)
	}

	return shops, nil
}

// ListStaff retrieves all staff with their preferred day off and applicable shops
func (d *DB) ListStaff(ctx context.Context) ([]model.Staff, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT s.id, s.first_name, s.last_name, s.tier, s.active, s.approved, p.preferred_day_off,
		       COALESCE(ARRAY_AGG(ss.shop_id ORDER BY ss.shop_id) FILTER (WHERE ss.shop_id IS NOT NULL), '{}')
		FROM staff s
		LEFT JOIN preference p ON p.staff_id = s.id
		LEFT JOIN staff_shop ss ON ss.staff_id = s.id
		GROUP BY s.id, p.preferred_day_off
		ORDER BY s.last_name, s.first_name, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var staff []model.Staff
	for rows.Next() {
		var s model.Staff
		var tier string
		var preferredDayOff *int16
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &tier, &s.Active, &s.Approved, &preferredDayOff, &s.ApplicableShopIDs); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		s.Tier = model.Tier(tier)
		if preferredDayOff != nil {
			day := int(*preferredDayOff)
			s.PreferredDayOff = &day
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}

	return staff, nil
}

// CreateShop inserts a shop and its requirement
func (d *DB) CreateShop(ctx context.Context, shop model.Shop) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO shop (id, name, active, is_roving)
		VALUES ($1, $2, $3, $4)
	`, shop.ID, shop.Name, shop.Active, shop.IsRoving)
	if err != nil {
		return fmt.Errorf("failed to insert shop: %w", err)
	}

	if shop.Requirement != (model.Requirement{}) {
		_, err = tx.Exec(ctx, `
			INSERT INTO shop_requirement (shop_id, required_main_staff, required_reserve_staff)
			VALUES ($1, $2, $3)
		`, shop.ID, shop.Requirement.MainStaff, shop.Requirement.ReserveStaff)
		if err != nil {
			return fmt.Errorf("failed to insert shop requirement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SetShopActive updates the active flag of a shop
func (d *DB) SetShopActive(ctx context.Context, shopID string, active bool) error {
	tag, err := d.pool.Exec(ctx, `UPDATE shop SET active = $2 WHERE id = $1`, shopID, active)
	if err != nil {
		return fmt.Errorf("failed to set shop active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shop %s: %w", shopID, db.ErrNotFound)
	}
	return nil
}

// SetApplicableShops replaces the staff member's applicable shop set
func (d *DB) SetApplicableShops(ctx context.Context, staffID string, shopIDs []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM staff_shop WHERE staff_id = $1`, staffID); err != nil {
		return fmt.Errorf("failed to clear applicable shops: %w", err)
	}

	if len(shopIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO staff_shop (staff_id, shop_id)
			SELECT $1, UNNEST($2::text[])
		`, staffID, shopIDs)
		if err != nil {
			return fmt.Errorf("failed to insert applicable shops: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpsertStaff inserts or updates a staff member and their preference. The
// applicable shop set is managed separately by SetApplicableShops.
func (d *DB) UpsertStaff(ctx context.Context, staff model.Staff) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO staff (id, first_name, last_name, tier, active, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			tier = EXCLUDED.tier,
			active = EXCLUDED.active,
			approved = EXCLUDED.approved
	`, staff.ID, staff.FirstName, staff.LastName, string(staff.Tier), staff.Active, staff.Approved)
	if err != nil {
		return fmt.Errorf("failed to upsert staff: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO preference (staff_id, preferred_day_off)
		VALUES ($1, $2)
		ON CONFLICT (staff_id) DO UPDATE SET preferred_day_off = EXCLUDED.preferred_day_off
	`, staff.ID, staff.PreferredDayOff)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
