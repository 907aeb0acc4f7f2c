package models

import "time"

// PromoCode is an admin-managed discount code. DiscountPercent and
// DiscountAmount are mutually exclusive; whichever is non-zero applies.
type PromoCode struct {
	BaseModel
	Code            string     `gorm:"uniqueIndex" json:"code"`
	Description     string     `json:"description"`
	DiscountPercent float64    `json:"discount_percent"`
	DiscountAmount  float64    `json:"discount_amount"`
	MinSubtotal     float64    `json:"min_subtotal"`
	UsageLimit      int        `json:"usage_limit"`
	TimesUsed       int        `json:"times_used"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	IsActive        bool       `json:"is_active"`
}
