package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/cache"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/utils"
)

// ProductHandler manages product CRUD. Writes invalidate the catalog cache
// because category product counts are derived from products.
type ProductHandler struct {
	db      *gorm.DB
	catalog *cache.CatalogCache
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, catalog *cache.CatalogCache) *ProductHandler {
	return &ProductHandler{db: db, catalog: catalog}
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}

	if v := c.Query("occasion_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where(
				"id IN (SELECT product_id FROM product_occasions WHERE occasion_id = ?)", id)
		}
	}

	if v := c.Query("flower_type_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where(
				"id IN (SELECT product_id FROM product_flower_types WHERE flower_type_id = ?)", id)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR short_description ILIKE ?", q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("base_price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("base_price <= ?", val)
		}
	}

	if featured := c.Query("featured"); featured == "true" {
		query = query.Where("is_featured = ?", true)
	}

	if available := c.Query("available"); available != "false" {
		query = query.Where("is_available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Variants").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a product with relations, by ID or slug.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	param := c.Params("id")

	query := h.db.Preload("Category").
		Preload("Variants").
		Preload("Media").
		Preload("FlowerTypes").
		Preload("Occasions")

	var product models.Product
	var err error
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		err = query.First(&product, "id = ?", id).Error
	} else {
		err = query.First(&product, "slug = ?", param).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Slug             string           `json:"slug"`
	Name             string           `json:"name"`
	ShortDescription string           `json:"short_description"`
	LongDescription  string           `json:"long_description"`
	BasePrice        float64          `json:"base_price"`
	Currency         string           `json:"currency"`
	Composition      string           `json:"composition"`
	HeroImage        string           `json:"hero_image"`
	IsAvailable      *bool            `json:"is_available"`
	IsFeatured       bool             `json:"is_featured"`
	CategoryID       string           `json:"category_id"`
	Variants         []variantRequest `json:"variants"`
	Media            []mediaRequest   `json:"media"`
	FlowerTypeIDs    []string         `json:"flower_type_ids"`
	OccasionIDs      []string         `json:"occasion_ids"`
}

type variantRequest struct {
	ID        string  `json:"id"`
	SKU       string  `json:"sku"`
	Label     string  `json:"label"`
	StemCount int     `json:"stem_count"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	IsActive  bool    `json:"is_active"`
	InStock   *bool   `json:"in_stock"`
}

type mediaRequest struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	AltText      string `json:"alt_text"`
	DisplayOrder int    `json:"display_order"`
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.attachLookupRelations(tx, &product, req); err != nil {
			return err
		}
		return tx.Create(&product).Error
	}); err != nil {
		return err
	}

	h.catalog.Invalidate()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates an existing product and replaces its associations.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var existing models.Product
	if err := h.db.Preload("Variants").Preload("Media").
		First(&existing, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	product.ID = existing.ID

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.attachLookupRelations(tx, &product, req); err != nil {
			return err
		}

		product.CreatedAt = existing.CreatedAt

		// Replace dependent associations
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductMedia{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&existing).Association("FlowerTypes").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&existing).Association("Occasions").Clear(); err != nil {
			return err
		}

		if err := tx.Model(&existing).Omit("ID", "CreatedAt").Updates(product).Error; err != nil {
			return err
		}

		if len(product.Variants) > 0 {
			if err := tx.Create(&product.Variants).Error; err != nil {
				return err
			}
		}
		if len(product.Media) > 0 {
			if err := tx.Create(&product.Media).Error; err != nil {
				return err
			}
		}

		if len(product.FlowerTypes) > 0 {
			if err := tx.Model(&existing).Association("FlowerTypes").Replace(product.FlowerTypes); err != nil {
				return err
			}
		}
		if len(product.Occasions) > 0 {
			if err := tx.Model(&existing).Association("Occasions").Replace(product.Occasions); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return err
	}

	h.catalog.Invalidate()
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product and its associations.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductMedia{}).Error; err != nil {
			return err
		}

		product := models.Product{BaseModel: models.BaseModel{ID: id}}
		if err := tx.Model(&product).Association("FlowerTypes").Clear(); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Model(&product).Association("Occasions").Clear(); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Delete(&models.Product{}, "id = ?", id).Error
	}); err != nil {
		return err
	}

	h.catalog.Invalidate()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) buildProductFromRequest(req productRequest) (models.Product, error) {
	product := models.Product{
		Slug:             req.Slug,
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		BasePrice:        req.BasePrice,
		Currency:         req.Currency,
		Composition:      req.Composition,
		HeroImage:        req.HeroImage,
		IsFeatured:       req.IsFeatured,
	}

	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	} else {
		product.IsAvailable = true
	}

	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return product, errors.New("invalid category_id")
		}
		product.CategoryID = &id
	}

	for _, v := range req.Variants {
		variant := models.ProductVariant{
			ProductID: product.ID,
			SKU:       v.SKU,
			Label:     v.Label,
			StemCount: v.StemCount,
			Price:     v.Price,
			Currency:  v.Currency,
			IsActive:  v.IsActive,
		}
		if v.InStock != nil {
			variant.InStock = *v.InStock
		} else {
			variant.InStock = true
		}
		product.Variants = append(product.Variants, variant)
	}

	for _, m := range req.Media {
		product.Media = append(product.Media, models.ProductMedia{
			ProductID:    product.ID,
			URL:          m.URL,
			AltText:      m.AltText,
			DisplayOrder: m.DisplayOrder,
		})
	}

	return product, nil
}

func (h *ProductHandler) attachLookupRelations(tx *gorm.DB, product *models.Product, req productRequest) error {
	if len(req.FlowerTypeIDs) > 0 {
		var flowerTypes []models.FlowerType
		if err := tx.Where("id IN ?", stringSliceToUUID(req.FlowerTypeIDs)).Find(&flowerTypes).Error; err != nil {
			return err
		}
		product.FlowerTypes = flowerTypes
	}
	if len(req.OccasionIDs) > 0 {
		var occasions []models.Occasion
		if err := tx.Where("id IN ?", stringSliceToUUID(req.OccasionIDs)).Find(&occasions).Error; err != nil {
			return err
		}
		product.Occasions = occasions
	}

	// Ensure product ID is set for nested entities before save
	for i := range product.Variants {
		product.Variants[i].ProductID = product.ID
	}
	for i := range product.Media {
		product.Media[i].ProductID = product.ID
	}

	return nil
}

func stringSliceToUUID(values []string) []uuid.UUID {
	var ids []uuid.UUID
	for _, value := range values {
		if value == "" {
			continue
		}
		if id, err := uuid.Parse(value); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
