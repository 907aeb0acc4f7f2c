package handlers

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/config"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/services"
	"github.com/example/lavanda/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db    *gorm.DB
	cfg   *config.Config
	bonus *services.BonusService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config, bonus *services.BonusService) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, bonus: bonus}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a staff account.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var admin models.AdminUser
	if err := h.db.Where("username = ? AND is_active = ?", req.Username, true).
		First(&admin).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, admin.ID, utils.RoleAdmin, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"admin": fiber.Map{
			"id":           admin.ID,
			"username":     admin.Username,
			"display_name": admin.DisplayName,
		},
		"token": token,
	})
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	// Total revenue (sum of total_amount for non-cancelled orders)
	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	// Today's revenue
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todayRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ? AND placed_at >= ?", models.OrderStatusCancelled, dayStart).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	// Outstanding bonus liability
	var bonusLiability int64
	if err := h.db.Model(&models.User{}).
		Select("COALESCE(SUM(bonus_balance), 0)").
		Scan(&bonusLiability).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_orders":     totalOrders,
			"total_revenue":    totalRevenue,
			"today_revenue":    todayRevenue,
			"bonus_liability":  bonusLiability,
			"orders_by_status": ordersByStatus,
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering, and user info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"order_number ILIKE ? OR delivery_address_line ILIKE ? OR recipient_phone ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to a new status.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Status {
	case models.OrderStatusPending, models.OrderStatusConfirmed,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}

	res := h.db.Model(&models.Order{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "order status updated"})
}

// ExportOrders streams all orders as CSV for back-office reporting.
func (h *AdminHandler) ExportOrders(c *fiber.Ctx) error {
	query := h.db.Model(&models.Order{}).Preload("User")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("placed_at desc").Find(&orders).Error; err != nil {
		return err
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="orders-%s.csv"`, time.Now().Format("2006-01-02")))

	writer := csv.NewWriter(c)
	defer writer.Flush()

	header := []string{"order_number", "placed_at", "status", "customer_phone",
		"subtotal", "delivery_fee", "promo_discount", "bonuses_used", "bonus", "total"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, order := range orders {
		phone := ""
		if order.User != nil {
			phone = order.User.Phone
		}
		record := []string{
			order.OrderNumber,
			order.PlacedAt.Format(time.RFC3339),
			order.Status,
			phone,
			strconv.FormatFloat(order.Subtotal, 'f', 2, 64),
			strconv.FormatFloat(order.DeliveryFee, 'f', 2, 64),
			strconv.FormatFloat(order.PromoDiscount, 'f', 2, 64),
			strconv.Itoa(order.BonusesUsed),
			strconv.Itoa(order.Bonus),
			strconv.FormatFloat(order.TotalAmount, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// ListAllCustomers returns registered customers with order and bonus stats.
func (h *AdminHandler) ListAllCustomers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	// Enrich users with order counts
	type userStats struct {
		UserID     string `json:"user_id"`
		OrderCount int64  `json:"order_count"`
	}

	var stats []userStats
	h.db.Model(&models.Order{}).
		Select("user_id, count(*) as order_count").
		Group("user_id").
		Scan(&stats)

	statsMap := make(map[string]int64)
	for _, s := range stats {
		statsMap[s.UserID] = s.OrderCount
	}

	type userResponse struct {
		models.User
		OrderCount int64 `json:"order_count"`
	}

	result := make([]userResponse, len(users))
	for i, u := range users {
		result[i] = userResponse{User: u, OrderCount: statsMap[u.ID.String()]}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type setBonusLevelRequest struct {
	Level string `json:"level"`
}

// SetCustomerBonusLevel overrides a customer's loyalty tier.
func (h *AdminHandler) SetCustomerBonusLevel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req setBonusLevelRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.bonus.SetLevel(id, req.Level); err != nil {
		switch err {
		case services.ErrUnknownLevel:
			return fiber.NewError(fiber.StatusBadRequest, "unknown bonus level")
		case gorm.ErrRecordNotFound:
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "bonus level updated"})
}

type adjustBonusRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustCustomerBonus applies a manual bonus correction in either direction.
func (h *AdminHandler) AdjustCustomerBonus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req adjustBonusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.bonus.Adjust(id, req.Amount, req.Reason); err != nil {
		switch err {
		case services.ErrZeroAdjustment:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case services.ErrInsufficientBalance:
			return fiber.NewError(fiber.StatusConflict, "insufficient bonus balance")
		case gorm.ErrRecordNotFound:
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "bonus adjusted"})
}

// ListCustomerBonusHistory returns a customer's ledger for the admin console.
func (h *AdminHandler) ListCustomerBonusHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", id).Model(&models.BonusHistoryEntry{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var entries []models.BonusHistoryEntry
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&entries).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
