package models

import (
	"time"

	"github.com/google/uuid"
)

// BonusHistoryEntry is one row of the append-only bonus ledger. Positive
// amounts are credits, negative amounts are debits. Entries are never
// updated or deleted; corrections are made with offsetting entries.
type BonusHistoryEntry struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Amount    int        `json:"amount"`
	Reason    string     `json:"reason"`
	OrderID   *uuid.UUID `gorm:"type:uuid" json:"order_id"`
	ExpiredAt *time.Time `json:"expired_at"`
}

// Loyalty levels in ascending order.
const (
	LevelBronze   = "bronze"
	LevelSilver   = "silver"
	LevelGold     = "gold"
	LevelPlatinum = "platinum"
	LevelPremium  = "premium"
)

// Ledger entry reasons written by the system itself.
const (
	BonusReasonOrder      = "order"
	BonusReasonRedeem     = "redeem"
	BonusReasonExpired    = "expired"
	BonusReasonAdjustment = "adjustment"
)

type levelTier struct {
	Level     string
	Percent   float64
	Threshold float64
}

// Cashback tiers keyed off cumulative lifetime spend. Order matters:
// LevelForSpend walks the slice from the top.
var levelTiers = []levelTier{
	{LevelPremium, 15, 50000},
	{LevelPlatinum, 10, 30000},
	{LevelGold, 7.5, 20000},
	{LevelSilver, 5, 10000},
	{LevelBronze, 2.5, 0},
}

// LevelPercent returns the cashback percentage for a level. Unknown levels
// fall back to bronze.
func LevelPercent(level string) float64 {
	for _, t := range levelTiers {
		if t.Level == level {
			return t.Percent
		}
	}
	return 2.5
}

// LevelForSpend returns the level a customer qualifies for at the given
// lifetime spend.
func LevelForSpend(spend float64) string {
	for _, t := range levelTiers {
		if spend >= t.Threshold {
			return t.Level
		}
	}
	return LevelBronze
}

// LevelRank orders levels so upgrades can be distinguished from downgrades.
func LevelRank(level string) int {
	switch level {
	case LevelPremium:
		return 4
	case LevelPlatinum:
		return 3
	case LevelGold:
		return 2
	case LevelSilver:
		return 1
	default:
		return 0
	}
}

// IsValidLevel reports whether level names a known tier.
func IsValidLevel(level string) bool {
	for _, t := range levelTiers {
		if t.Level == level {
			return true
		}
	}
	return false
}
