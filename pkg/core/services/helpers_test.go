package services

import (
	"math/rand/v2"
	"time"

	"github.com/jakechorley/shopduty/internal/config"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

const (
	highStreet = "high-st"
	market     = "market"
	roving     = "roving"
)

// weekOne is a Monday; nowBefore is the Wednesday before it
var (
	weekOne   = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	nowBefore = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseURL:       "postgres://unused",
		RovingShopName:    config.DefaultRovingShopName,
		WeeksAhead:        1,
		AutoGenerateRRule: config.DefaultAutoGenerateRRule,
		Timezone:          "UTC",
	}
}

func intPtr(i int) *int {
	return &i
}

func testShop(id string, mainStaff int) model.Shop {
	return model.Shop{
		ID:          id,
		Name:        id,
		Active:      true,
		Requirement: model.Requirement{MainStaff: mainStaff},
	}
}

func rovingShop() model.Shop {
	return model.Shop{
		ID:          roving,
		Name:        "Roving",
		Active:      true,
		IsRoving:    true,
		Requirement: model.DefaultRequirement,
	}
}

func testStaff(id string, tier model.Tier, shopIDs ...string) model.Staff {
	return model.Staff{
		ID:                id,
		FirstName:         id,
		Tier:              tier,
		Active:            true,
		Approved:          true,
		ApplicableShopIDs: shopIDs,
	}
}

// scenarioStore has one shop needing two staff a day and three regulars
func scenarioStore() *db.MemoryDB {
	store := db.NewMemoryDB()
	store.AddShop(testShop(highStreet, 2))
	store.AddShop(rovingShop())
	for _, id := range []string{"amara", "ben", "chen"} {
		store.AddStaff(testStaff(id, model.TierRegular, highStreet))
	}
	return store
}

func shiftsOn(shifts []model.Shift, date time.Time, role model.Role) []model.Shift {
	var out []model.Shift
	for _, s := range shifts {
		if model.SameDate(s.Date, date) && s.Role == role {
			out = append(out, s)
		}
	}
	return out
}
