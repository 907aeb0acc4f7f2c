package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/cache"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/utils"
)

// CatalogHandler manages catalog related resources. Category reads go
// through the catalog cache; every write invalidates it.
type CatalogHandler struct {
	db      *gorm.DB
	catalog *cache.CatalogCache
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB, catalog *cache.CatalogCache) *CatalogHandler {
	return &CatalogHandler{db: db, catalog: catalog}
}

// ListCategories returns all categories with product counts, served from
// the cache.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories()
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// GetCategory returns a single category by ID or slug.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	param := c.Params("id")

	var category models.Category
	var err error
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		err = h.db.First(&category, "id = ?", id).Error
	} else {
		err = h.db.First(&category, "slug = ?", param).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	h.catalog.Invalidate()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = category.ID
	if err := h.db.Model(&category).Updates(payload).Error; err != nil {
		return err
	}

	h.catalog.Invalidate()
	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return err
	}

	h.catalog.Invalidate()
	return c.SendStatus(fiber.StatusNoContent)
}

// Generic helpers for the simple lookup tables (flower types, occasions).

func (h *CatalogHandler) listSimple(c *fiber.Ctx, model interface{}) error {
	pg := utils.ParsePagination(c)
	var total int64
	if err := h.db.Model(model).Count(&total).Error; err != nil {
		return err
	}
	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(model).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": model, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

func (h *CatalogHandler) getSimple(c *fiber.Ctx, model interface{}) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.First(model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "resource not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": model})
}

func (h *CatalogHandler) createSimple(c *fiber.Ctx, model interface{}) error {
	if err := c.BodyParser(model); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.db.Create(model).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": model})
}

func (h *CatalogHandler) updateSimple(c *fiber.Ctx, model interface{}) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.First(model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "resource not found")
		}
		return err
	}
	if err := c.BodyParser(model); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.db.Save(model).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": model})
}

func (h *CatalogHandler) deleteSimple(c *fiber.Ctx, model interface{}) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(model, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) ListFlowerTypes(c *fiber.Ctx) error {
	var items []models.FlowerType
	return h.listSimple(c, &items)
}

func (h *CatalogHandler) GetFlowerType(c *fiber.Ctx) error {
	var item models.FlowerType
	return h.getSimple(c, &item)
}

func (h *CatalogHandler) CreateFlowerType(c *fiber.Ctx) error {
	var item models.FlowerType
	return h.createSimple(c, &item)
}

func (h *CatalogHandler) UpdateFlowerType(c *fiber.Ctx) error {
	var item models.FlowerType
	return h.updateSimple(c, &item)
}

func (h *CatalogHandler) DeleteFlowerType(c *fiber.Ctx) error {
	var item models.FlowerType
	return h.deleteSimple(c, &item)
}

func (h *CatalogHandler) ListOccasions(c *fiber.Ctx) error {
	var items []models.Occasion
	return h.listSimple(c, &items)
}

func (h *CatalogHandler) GetOccasion(c *fiber.Ctx) error {
	var item models.Occasion
	return h.getSimple(c, &item)
}

func (h *CatalogHandler) CreateOccasion(c *fiber.Ctx) error {
	var item models.Occasion
	return h.createSimple(c, &item)
}

func (h *CatalogHandler) UpdateOccasion(c *fiber.Ctx) error {
	var item models.Occasion
	return h.updateSimple(c, &item)
}

func (h *CatalogHandler) DeleteOccasion(c *fiber.Ctx) error {
	var item models.Occasion
	return h.deleteSimple(c, &item)
}
