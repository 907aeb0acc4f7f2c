// Package cache holds the in-process catalog cache. The category tree is
// read on nearly every storefront page but changes only through the admin
// console, so it is cached with an explicit lifecycle: populated on first
// fetch, invalidated by category and product writes.
package cache

import (
	"sync"

	"gorm.io/gorm"

	"github.com/example/lavanda/internal/models"
)

// CatalogCache caches the category list with live product counts.
type CatalogCache struct {
	db *gorm.DB

	mu         sync.RWMutex
	categories []models.Category
	loaded     bool
}

// NewCatalogCache constructs a CatalogCache over the given database.
func NewCatalogCache(db *gorm.DB) *CatalogCache {
	return &CatalogCache{db: db}
}

// Categories returns the cached category list, loading it on first use.
func (c *CatalogCache) Categories() ([]models.Category, error) {
	c.mu.RLock()
	if c.loaded {
		out := c.categories
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if c.loaded {
		return c.categories, nil
	}

	var categories []models.Category
	if err := c.db.Order("display_order asc, created_at asc").Find(&categories).Error; err != nil {
		return nil, err
	}

	type categoryCount struct {
		CategoryID string
		Count      int
	}
	var counts []categoryCount
	if err := c.db.Model(&models.Product{}).
		Select("category_id, count(*) as count").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	countMap := make(map[string]int, len(counts))
	for _, cc := range counts {
		countMap[cc.CategoryID] = cc.Count
	}
	for i := range categories {
		categories[i].ProductCount = countMap[categories[i].ID.String()]
	}

	c.categories = categories
	c.loaded = true
	return c.categories, nil
}

// Invalidate drops the cached list. Called by any handler that writes
// categories or products; the next read repopulates.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.categories = nil
	c.loaded = false
	c.mu.Unlock()
}
