package models

type Category struct {
	BaseModel
	Name         string    `json:"name"`
	Slug         string    `gorm:"uniqueIndex" json:"slug"`
	Subtitle     string    `json:"subtitle"`
	Description  string    `json:"description"`
	HeroImage    string    `json:"hero_image"`
	CardImage    string    `json:"card_image"`
	DisplayOrder int       `json:"display_order"`
	ProductCount int       `json:"product_count"`
	Products     []Product `json:"products,omitempty"`
}

type FlowerType struct {
	BaseModel
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Products    []Product `gorm:"many2many:product_flower_types;" json:"products,omitempty"`
}

type Occasion struct {
	BaseModel
	Name     string    `json:"name"`
	Slug     string    `gorm:"uniqueIndex" json:"slug"`
	Products []Product `gorm:"many2many:product_occasions;" json:"products,omitempty"`
}
