package services

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/models"
)

var (
	// ErrInsufficientBalance means a debit would take the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient bonus balance")
	// ErrAlreadyCredited means the order already has a cashback ledger entry.
	ErrAlreadyCredited = errors.New("order already credited")
	// ErrUnknownLevel means the level name does not match any tier.
	ErrUnknownLevel = errors.New("unknown bonus level")
	// ErrZeroAdjustment means a manual adjustment of zero was requested.
	ErrZeroAdjustment = errors.New("adjustment amount must not be zero")
)

// BonusService maintains the append-only bonus ledger and the cached
// per-user balance. Every mutation appends a ledger row and moves the
// balance in the same transaction with a single SQL increment, so the two
// never diverge and concurrent checkouts cannot overdraft.
type BonusService struct {
	db           *gorm.DB
	expiryMonths int
}

// NewBonusService constructs a BonusService. expiryMonths controls how old
// a credit may grow before ExpireStale reclaims it.
func NewBonusService(db *gorm.DB, expiryMonths int) *BonusService {
	return &BonusService{db: db, expiryMonths: expiryMonths}
}

// Credit awards cashback for a completed order: floor(total × level %).
// At most one order-credit is written per order. The customer's lifetime
// spend grows by the order total and the level is recomputed, upgrades only.
func (s *BonusService) Credit(userID uuid.UUID, orderTotal float64, orderID uuid.UUID) (int, error) {
	var amount int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var credited int64
		if err := tx.Model(&models.BonusHistoryEntry{}).
			Where("order_id = ? AND reason = ?", orderID, models.BonusReasonOrder).
			Count(&credited).Error; err != nil {
			return err
		}
		if credited > 0 {
			return ErrAlreadyCredited
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		amount = int(math.Floor(orderTotal * models.LevelPercent(user.BonusLevel) / 100))

		// The ledger row is written even when the cashback floors to
		// zero: it is what marks the order as credited.
		orderRef := orderID
		entry := models.BonusHistoryEntry{
			UserID:  userID,
			Amount:  amount,
			Reason:  models.BonusReasonOrder,
			OrderID: &orderRef,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if amount > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).
				Update("bonus_balance", gorm.Expr("bonus_balance + ?", amount)).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"lifetime_spend": gorm.Expr("lifetime_spend + ?", orderTotal),
		}
		if next := models.LevelForSpend(user.LifetimeSpend + orderTotal); models.LevelRank(next) > models.LevelRank(user.BonusLevel) {
			updates["bonus_level"] = next
		}

		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
	})

	if err != nil {
		return 0, err
	}
	return amount, nil
}

// Debit redeems bonuses against an order. The decrement is a single
// conditional UPDATE guarded by the current balance, so the non-negative
// invariant holds even under concurrent checkouts. On a short balance
// nothing is written and ErrInsufficientBalance is returned.
func (s *BonusService) Debit(userID uuid.UUID, amount int, orderID *uuid.UUID) error {
	if amount <= 0 {
		return errors.New("debit amount must be positive")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND bonus_balance >= ?", userID, amount).
			Update("bonus_balance", gorm.Expr("bonus_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, "id = ?", userID).Error; err != nil {
				return err
			}
			return ErrInsufficientBalance
		}

		entry := models.BonusHistoryEntry{
			UserID:  userID,
			Amount:  -amount,
			Reason:  models.BonusReasonRedeem,
			OrderID: orderID,
		}
		return tx.Create(&entry).Error
	})
}

// ExpireStale reverses credits older than the expiry horizon with
// offsetting negative entries. It runs opportunistically when the account
// is viewed. Each swept credit is stamped with expired_at so the sweep is
// idempotent; the reclaimed amount is capped at whatever balance remains,
// never driving it negative. Returns how many credits were reversed.
func (s *BonusService) ExpireStale(userID uuid.UUID) (int, error) {
	cutoff := time.Now().AddDate(0, -s.expiryMonths, 0)
	expired := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stale []models.BonusHistoryEntry
		if err := tx.Where("user_id = ? AND amount > 0 AND expired_at IS NULL AND created_at < ?",
			userID, cutoff).
			Order("created_at asc").
			Find(&stale).Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		balance := user.BonusBalance

		now := time.Now()
		for i := range stale {
			entry := &stale[i]

			// Stamp first: a credit whose value is already spent has
			// nothing left to reclaim, but must not be revisited either.
			if err := tx.Model(&models.BonusHistoryEntry{}).
				Where("id = ?", entry.ID).
				Update("expired_at", &now).Error; err != nil {
				return err
			}

			sweep := entry.Amount
			if sweep > balance {
				sweep = balance
			}
			if sweep <= 0 {
				continue
			}

			res := tx.Model(&models.User{}).
				Where("id = ? AND bonus_balance >= ?", userID, sweep).
				Update("bonus_balance", gorm.Expr("bonus_balance - ?", sweep))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			offset := models.BonusHistoryEntry{
				UserID:  userID,
				Amount:  -sweep,
				Reason:  models.BonusReasonExpired,
				OrderID: entry.OrderID,
			}
			if err := tx.Create(&offset).Error; err != nil {
				return err
			}

			balance -= sweep
			expired++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}
	return expired, nil
}

// SetLevel is the admin override of the automatic tier computation.
func (s *BonusService) SetLevel(userID uuid.UUID, level string) error {
	if !models.IsValidLevel(level) {
		return ErrUnknownLevel
	}

	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("bonus_level", level)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Adjust applies a manual admin correction in either direction. Negative
// adjustments honor the same non-negative guard as debits.
func (s *BonusService) Adjust(userID uuid.UUID, amount int, reason string) error {
	if amount == 0 {
		return ErrZeroAdjustment
	}
	if reason == "" {
		reason = models.BonusReasonAdjustment
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var res *gorm.DB
		if amount > 0 {
			res = tx.Model(&models.User{}).Where("id = ?", userID).
				Update("bonus_balance", gorm.Expr("bonus_balance + ?", amount))
		} else {
			res = tx.Model(&models.User{}).
				Where("id = ? AND bonus_balance >= ?", userID, -amount).
				Update("bonus_balance", gorm.Expr("bonus_balance - ?", -amount))
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, "id = ?", userID).Error; err != nil {
				return err
			}
			return ErrInsufficientBalance
		}

		entry := models.BonusHistoryEntry{
			UserID: userID,
			Amount: amount,
			Reason: reason,
		}
		return tx.Create(&entry).Error
	})
}
