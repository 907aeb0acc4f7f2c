package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/services"
	"github.com/example/lavanda/internal/utils"
)

// PromoHandler manages promo code validation and admin CRUD.
type PromoHandler struct {
	db    *gorm.DB
	promo *services.PromoService
}

// NewPromoHandler constructs PromoHandler.
func NewPromoHandler(db *gorm.DB, promo *services.PromoService) *PromoHandler {
	return &PromoHandler{db: db, promo: promo}
}

type validatePromoRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// Validate checks a promo code against a cart subtotal and returns the
// discount it would grant.
func (h *PromoHandler) Validate(c *fiber.Ctx) error {
	var req validatePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	promo, discount, err := h.promo.Validate(req.Code, req.Subtotal)
	if err != nil {
		switch err {
		case services.ErrPromoNotFound:
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case services.ErrPromoExpired, services.ErrPromoExhausted, services.ErrPromoMinSubtotal:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"code":             promo.Code,
			"discount":         discount,
			"discount_percent": promo.DiscountPercent,
			"discount_amount":  promo.DiscountAmount,
		},
	})
}

// ListPromoCodes returns all promo codes for the admin console.
func (h *PromoHandler) ListPromoCodes(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.PromoCode{}).Count(&total).Error; err != nil {
		return err
	}

	var codes []models.PromoCode
	if err := h.db.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&codes).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    codes,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// CreatePromoCode persists a new promo code.
func (h *PromoHandler) CreatePromoCode(c *fiber.Ctx) error {
	var payload models.PromoCode
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdatePromoCode updates a promo code.
func (h *PromoHandler) UpdatePromoCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var promo models.PromoCode
	if err := h.db.First(&promo, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "promo code not found")
		}
		return err
	}

	var payload models.PromoCode
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = promo.ID
	if err := h.db.Model(&promo).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": promo})
}

// DeletePromoCode removes a promo code.
func (h *PromoHandler) DeletePromoCode(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.PromoCode{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
