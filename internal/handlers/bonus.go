package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/middleware"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/services"
	"github.com/example/lavanda/internal/utils"
)

// BonusHandler exposes the customer's bonus account and ledger.
type BonusHandler struct {
	db    *gorm.DB
	bonus *services.BonusService
}

// NewBonusHandler constructs BonusHandler.
func NewBonusHandler(db *gorm.DB, bonus *services.BonusService) *BonusHandler {
	return &BonusHandler{db: db, bonus: bonus}
}

// GetAccount returns the bonus account summary. Viewing the account is
// what triggers the opportunistic expiry sweep: dormant accounts are only
// swept when next accessed.
func (h *BonusHandler) GetAccount(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	expiredCount, err := h.bonus.ExpireStale(userID)
	if err != nil {
		log.Printf("[Bonus] expiry sweep failed for user %s: %v", userID, err)
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"bonus_balance":  user.BonusBalance,
			"bonus_level":    user.BonusLevel,
			"level_percent":  models.LevelPercent(user.BonusLevel),
			"lifetime_spend": user.LifetimeSpend,
			"expired_count":  expiredCount,
		},
	})
}

// ListHistory returns the bonus ledger entries, newest first.
func (h *BonusHandler) ListHistory(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.BonusHistoryEntry{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var entries []models.BonusHistoryEntry
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&entries).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
