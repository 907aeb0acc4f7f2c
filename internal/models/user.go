package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a customer identified by a verified phone number.
// There are no customer passwords: ownership of the phone is the credential.
type User struct {
	BaseModel
	Phone         string  `gorm:"uniqueIndex" json:"phone"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DisplayName   string  `json:"display_name"`
	BonusBalance  int     `json:"bonus_balance"`
	BonusLevel    string  `json:"bonus_level"`
	LifetimeSpend float64 `json:"lifetime_spend"`

	Addresses    []UserAddress       `json:"addresses,omitempty"`
	BonusHistory []BonusHistoryEntry `json:"bonus_history,omitempty"`
	Orders       []Order             `json:"orders,omitempty"`
}

// CallVerification tracks a single call-verification attempt. Rows are
// short-lived: they are deleted once the attempt is resolved either way.
type CallVerification struct {
	BaseModel
	Phone     string    `gorm:"index" json:"phone"`
	CheckID   string    `gorm:"uniqueIndex" json:"check_id"`
	CallPhone string    `json:"call_phone"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Verification attempt states.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationExpired  = "expired"
	VerificationFailed   = "failed"
)

type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label       string    `json:"label"`
	AddressLine string    `json:"address_line"`
	Apartment   string    `json:"apartment"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	PostalCode  string    `json:"postal_code"`
	IsDefault   bool      `json:"is_default"`
}

// AdminUser is a back-office account. Unlike customers, staff log in with
// a password.
type AdminUser struct {
	BaseModel
	Username     string `gorm:"uniqueIndex" json:"username"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
}
