package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/models"
)

// MarketingHandler manages storefront content: banners, pickup branches
// and the site settings singleton.
type MarketingHandler struct {
	db *gorm.DB
}

// NewMarketingHandler constructs MarketingHandler.
func NewMarketingHandler(db *gorm.DB) *MarketingHandler {
	return &MarketingHandler{db: db}
}

// ListBanners returns active banners in display order.
func (h *MarketingHandler) ListBanners(c *fiber.Ctx) error {
	query := h.db.Model(&models.Banner{})
	if c.Query("all") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var banners []models.Banner
	if err := query.Order("display_order asc, created_at desc").Find(&banners).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": banners})
}

// CreateBanner persists a new banner.
func (h *MarketingHandler) CreateBanner(c *fiber.Ctx) error {
	var payload models.Banner
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateBanner updates a banner.
func (h *MarketingHandler) UpdateBanner(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var banner models.Banner
	if err := h.db.First(&banner, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "banner not found")
		}
		return err
	}

	var payload models.Banner
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = banner.ID
	if err := h.db.Model(&banner).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": banner})
}

// DeleteBanner removes a banner.
func (h *MarketingHandler) DeleteBanner(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Banner{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListPickupBranches returns pickup branches.
func (h *MarketingHandler) ListPickupBranches(c *fiber.Ctx) error {
	query := h.db.Model(&models.PickupBranch{})
	if c.Query("all") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var branches []models.PickupBranch
	if err := query.Order("created_at asc").Find(&branches).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": branches})
}

// CreatePickupBranch persists a new pickup branch.
func (h *MarketingHandler) CreatePickupBranch(c *fiber.Ctx) error {
	var payload models.PickupBranch
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdatePickupBranch updates a pickup branch.
func (h *MarketingHandler) UpdatePickupBranch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var branch models.PickupBranch
	if err := h.db.First(&branch, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "pickup branch not found")
		}
		return err
	}

	var payload models.PickupBranch
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = branch.ID
	if err := h.db.Model(&branch).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": branch})
}

// DeletePickupBranch removes a pickup branch.
func (h *MarketingHandler) DeletePickupBranch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.PickupBranch{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetSiteSettings returns the settings singleton, creating an empty row on
// first access.
func (h *MarketingHandler) GetSiteSettings(c *fiber.Ctx) error {
	var settings models.SiteSettings
	if err := h.db.First(&settings).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := h.db.Create(&settings).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// UpdateSiteSettings updates the settings singleton.
func (h *MarketingHandler) UpdateSiteSettings(c *fiber.Ctx) error {
	var settings models.SiteSettings
	if err := h.db.First(&settings).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := h.db.Create(&settings).Error; err != nil {
			return err
		}
	}

	var payload models.SiteSettings
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = settings.ID
	if err := h.db.Model(&settings).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": settings})
}
