package game

import (
	"sort"
	"time"

	"pyramid_empire/internal/domain"
)

// USDCUnit is one USDC in the token's smallest unit (6 decimals).
const USDCUnit int64 = 1_000_000

// BattlePassDuration is how long one battle pass purchase lasts.
const BattlePassDuration = 30 * 24 * time.Hour

type ItemCategory string

const (
	ItemSubscription ItemCategory = "subscription"
	ItemBoost        ItemCategory = "boost"
	ItemConsumable   ItemCategory = "consumable"
)

// ShopItem is an entry of the fixed price table.
type ShopItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    ItemCategory  `json:"category"`
	PriceUnits  int64         `json:"price_units"`
	Multiplier  float64       `json:"multiplier,omitempty"`
	Duration    time.Duration `json:"-"`
	Seconds     int64         `json:"duration_seconds,omitempty"`
	Description string        `json:"description"`
}

const (
	ItemPremium      = "premium"
	ItemBattlePass   = "battle_pass"
	ItemBoostX2      = "boost_x2"
	ItemBoostX5      = "boost_x5"
	ItemBoostX10     = "boost_x10"
	ItemEnergyRefill = "energy_refill"
)

var catalog = map[string]ShopItem{
	ItemPremium: {
		ID: ItemPremium, Name: "Premium", Category: ItemSubscription,
		PriceUnits:  4_990_000,
		Description: "Removes the level cap, tap cooldown and energy limit forever",
	},
	ItemBattlePass: {
		ID: ItemBattlePass, Name: "Battle Pass", Category: ItemSubscription,
		PriceUnits: 9_990_000, Duration: BattlePassDuration,
		Description: "30 days of x5 taps, +10% bonus, referral bonus and no limits",
	},
	ItemBoostX2: {
		ID: ItemBoostX2, Name: "x2 Boost", Category: ItemBoost,
		PriceUnits: 990_000, Multiplier: 2, Duration: 24 * time.Hour,
		Description: "Double bricks per tap for 24 hours",
	},
	ItemBoostX5: {
		ID: ItemBoostX5, Name: "x5 Boost", Category: ItemBoost,
		PriceUnits: 2_990_000, Multiplier: 5, Duration: 24 * time.Hour,
		Description: "Five times the bricks per tap for 24 hours",
	},
	ItemBoostX10: {
		ID: ItemBoostX10, Name: "x10 Boost", Category: ItemBoost,
		PriceUnits: 4_990_000, Multiplier: 10, Duration: 12 * time.Hour,
		Description: "Ten times the bricks per tap for 12 hours",
	},
	ItemEnergyRefill: {
		ID: ItemEnergyRefill, Name: "Energy Refill", Category: ItemConsumable,
		PriceUnits:  490_000,
		Description: "Refills energy to the maximum",
	},
}

// LookupItem returns the catalog entry for id.
func LookupItem(id string) (ShopItem, bool) {
	item, ok := catalog[id]
	item.Seconds = int64(item.Duration.Seconds())
	return item, ok
}

// Items returns the catalog sorted by price.
func Items() []ShopItem {
	items := make([]ShopItem, 0, len(catalog))
	for _, item := range catalog {
		item.Seconds = int64(item.Duration.Seconds())
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].PriceUnits == items[j].PriceUnits {
			return items[i].ID < items[j].ID
		}
		return items[i].PriceUnits < items[j].PriceUnits
	})
	return items
}

// Effect summarises what ApplyItem changed.
type Effect struct {
	Item              string `json:"item"`
	PremiumGranted    bool   `json:"premium_granted,omitempty"`
	BattlePassGranted bool   `json:"battle_pass_granted,omitempty"`
	BoostGranted      bool   `json:"boost_granted,omitempty"`
	EnergyRefilled    bool   `json:"energy_refilled,omitempty"`
}

// ApplyItem applies a paid item to the user and progress in place and
// re-derives the level, since premium and battle pass lift the cap.
func ApplyItem(item ShopItem, u *domain.User, p *domain.GameProgress, now time.Time) Effect {
	effect := Effect{Item: item.ID}

	switch item.Category {
	case ItemSubscription:
		if item.ID == ItemBattlePass {
			start := now
			if u.HasBattlePass(now) {
				start = *u.BattlePassExpiresAt
			}
			expires := start.Add(item.Duration)
			u.BattlePassExpiresAt = &expires
			effect.BattlePassGranted = true
		} else {
			u.IsPremium = true
			effect.PremiumGranted = true
		}
	case ItemBoost:
		GrantBoost(p, item.Multiplier, item.Duration, now)
		effect.BoostGranted = true
	case ItemConsumable:
		p.Energy = MaxEnergy
		effect.EnergyRefilled = true
	}

	p.Level, _ = ResolveLevel(p.Bricks, u.IsPremium, u.HasBattlePass(now))
	return effect
}
