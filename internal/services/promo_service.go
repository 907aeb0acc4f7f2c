package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/lavanda/internal/models"
)

var (
	// ErrPromoNotFound means no active promo code matches.
	ErrPromoNotFound = errors.New("promo code not found")
	// ErrPromoExpired means the code is outside its active window.
	ErrPromoExpired = errors.New("promo code expired")
	// ErrPromoExhausted means the usage limit has been reached.
	ErrPromoExhausted = errors.New("promo code usage limit reached")
	// ErrPromoMinSubtotal means the cart is below the code's minimum.
	ErrPromoMinSubtotal = errors.New("subtotal below promo code minimum")
)

// PromoService validates and redeems promo codes.
type PromoService struct {
	db *gorm.DB
}

// NewPromoService constructs a PromoService.
func NewPromoService(db *gorm.DB) *PromoService {
	return &PromoService{db: db}
}

// Validate checks a code against the subtotal and returns the discount it
// grants. Codes are matched case-insensitively.
func (s *PromoService) Validate(code string, subtotal float64) (*models.PromoCode, float64, error) {
	var promo models.PromoCode
	err := s.db.Where("upper(code) = ? AND is_active = ?", strings.ToUpper(code), true).
		First(&promo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, ErrPromoNotFound
		}
		return nil, 0, err
	}

	now := time.Now()
	if promo.StartsAt != nil && now.Before(*promo.StartsAt) {
		return nil, 0, ErrPromoExpired
	}
	if promo.EndsAt != nil && now.After(*promo.EndsAt) {
		return nil, 0, ErrPromoExpired
	}
	if promo.UsageLimit > 0 && promo.TimesUsed >= promo.UsageLimit {
		return nil, 0, ErrPromoExhausted
	}
	if subtotal < promo.MinSubtotal {
		return nil, 0, ErrPromoMinSubtotal
	}

	discount := promo.DiscountAmount
	if promo.DiscountPercent > 0 {
		discount = math.Floor(subtotal * promo.DiscountPercent / 100)
	}
	if discount > subtotal {
		discount = subtotal
	}

	return &promo, discount, nil
}

// Redeem counts one use of the code. The increment is conditional on the
// usage limit so concurrent checkouts cannot overshoot it.
func (s *PromoService) Redeem(code string) error {
	res := s.db.Model(&models.PromoCode{}).
		Where("upper(code) = ? AND is_active = ? AND (usage_limit = 0 OR times_used < usage_limit)",
			strings.ToUpper(code), true).
		Update("times_used", gorm.Expr("times_used + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPromoExhausted
	}
	return nil
}
