package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/config"
	"github.com/example/lavanda/internal/middleware"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/services"
	"github.com/example/lavanda/internal/utils"
)

// AuthHandler implements the call-verification login flow: the customer
// dials a provider-assigned number from their own phone, and carrier-level
// detection of that inbound call proves ownership. No passwords, no OTP
// codes.
type AuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	verifier services.CallVerifier
	limiter  *services.AttemptLimiter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, verifier services.CallVerifier, limiter *services.AttemptLimiter) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, verifier: verifier, limiter: limiter}
}

type requestCallRequest struct {
	Phone string `json:"phone"`
}

// RequestCall allocates a verification attempt and tells the client which
// number to dial. Attempts are rate limited per phone; exceeding the quota
// puts the caller into a cooldown.
func (h *AuthHandler) RequestCall(c *fiber.Ctx) error {
	var req requestCallRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	if !h.limiter.Allow(c.Context(), phone) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":     false,
			"error":       "too many verification attempts",
			"retry_after": int(h.limiter.RetryAfter().Seconds()),
		})
	}

	check, err := h.verifier.RequestCall(phone)
	if err != nil {
		log.Printf("[Auth] call request failed for %s: %v", phone, err)
		return fiber.NewError(fiber.StatusBadGateway, "verification service unavailable")
	}

	// A fresh attempt supersedes any pending one for the same phone.
	if err := h.db.Where("phone = ?", phone).Delete(&models.CallVerification{}).Error; err != nil {
		return err
	}

	verification := models.CallVerification{
		Phone:     phone,
		CheckID:   check.CheckID,
		CallPhone: check.CallPhone,
		Status:    models.VerificationPending,
		ExpiresAt: time.Now().Add(h.cfg.CallWindow),
	}
	if err := h.db.Create(&verification).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"check_id":          check.CheckID,
		"call_phone":        check.CallPhone,
		"call_phone_pretty": utils.PrettyPhone(check.CallPhone),
		"expires_in":        int(h.cfg.CallWindow.Seconds()),
		"poll_interval":     int(h.cfg.CallPollInterval.Seconds()),
	})
}

type callStatusRequest struct {
	CheckID string `json:"check_id"`
	Phone   string `json:"phone"`
}

// CallStatus reports the state of a verification attempt. The local window
// is authoritative: once expires_at has passed the attempt is dead, even if
// the provider would still report it verified. On success a session cookie
// is issued for the phone.
func (h *AuthHandler) CallStatus(c *fiber.Ctx) error {
	var req callStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	var verification models.CallVerification
	if err := h.db.Where("check_id = ?", req.CheckID).First(&verification).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "verification attempt not found")
		}
		return err
	}

	if verification.Phone != phone {
		return fiber.NewError(fiber.StatusBadRequest, "phone does not match verification attempt")
	}

	if time.Now().After(verification.ExpiresAt) {
		h.discardVerification(&verification)
		return c.JSON(fiber.Map{"success": true, "status": models.VerificationExpired})
	}

	status, err := h.verifier.CheckStatus(req.CheckID)
	if err != nil {
		// Transient from the client's point of view: it keeps polling
		// until its own window elapses.
		log.Printf("[Auth] status poll failed for check %s: %v", req.CheckID, err)
		return fiber.NewError(fiber.StatusBadGateway, "verification service unavailable")
	}

	switch status {
	case models.VerificationVerified:
		user, err := h.findOrCreateUser(phone)
		if err != nil {
			return err
		}

		token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, utils.RoleCustomer, h.cfg.TokenExpires)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
		}

		middleware.SetSessionCookie(c, token, h.cfg.TokenExpires)
		h.discardVerification(&verification)

		return c.JSON(fiber.Map{
			"success": true,
			"status":  models.VerificationVerified,
			"user": fiber.Map{
				"id":            user.ID,
				"phone":         user.Phone,
				"display_name":  user.DisplayName,
				"bonus_balance": user.BonusBalance,
				"bonus_level":   user.BonusLevel,
			},
		})

	case models.VerificationExpired, models.VerificationFailed:
		h.discardVerification(&verification)
		return c.JSON(fiber.Map{"success": true, "status": status})

	default:
		return c.JSON(fiber.Map{"success": true, "status": models.VerificationPending})
	}
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":            user.ID,
			"phone":         user.Phone,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"display_name":  user.DisplayName,
			"bonus_balance": user.BonusBalance,
			"bonus_level":   user.BonusLevel,
		},
	})
}

// findOrCreateUser looks up the customer by verified phone, creating the
// account on first login.
func (h *AuthHandler) findOrCreateUser(phone string) (*models.User, error) {
	var user models.User
	err := h.db.Where("phone = ?", phone).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user = models.User{
		Phone:      phone,
		BonusLevel: models.LevelBronze,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// discardVerification removes a resolved attempt; failures here are logged
// but never surfaced.
func (h *AuthHandler) discardVerification(v *models.CallVerification) {
	if err := h.db.Delete(&models.CallVerification{}, "id = ?", v.ID).Error; err != nil {
		log.Printf("[Auth] failed to discard verification %s: %v", v.CheckID, err)
	}
}
