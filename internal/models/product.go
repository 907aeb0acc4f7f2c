package models

import "github.com/google/uuid"

type Product struct {
	BaseModel
	Slug             string     `gorm:"uniqueIndex" json:"slug"`
	Name             string     `json:"name"`
	ShortDescription string     `json:"short_description"`
	LongDescription  string     `json:"long_description"`
	BasePrice        float64    `json:"base_price"`
	Currency         string     `json:"currency"`
	Composition      string     `json:"composition"`
	HeroImage        string     `json:"hero_image"`
	IsAvailable      bool       `json:"is_available"`
	IsFeatured       bool       `json:"is_featured"`
	CategoryID       *uuid.UUID `gorm:"type:uuid" json:"category_id"`
	Category         *Category  `json:"category,omitempty"`

	Variants    []ProductVariant `json:"variants,omitempty"`
	Media       []ProductMedia   `json:"media,omitempty"`
	FlowerTypes []FlowerType     `gorm:"many2many:product_flower_types;" json:"flower_types,omitempty"`
	Occasions   []Occasion       `gorm:"many2many:product_occasions;" json:"occasions,omitempty"`
}

// ProductVariant is a size tier of a bouquet or gift set.
type ProductVariant struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	SKU       string    `json:"sku"`
	Label     string    `json:"label"`
	StemCount int       `json:"stem_count"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	InStock   bool      `json:"in_stock"`
}

type ProductMedia struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	URL          string    `json:"url"`
	AltText      string    `json:"alt_text"`
	DisplayOrder int       `json:"display_order"`
}
