package handlers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lavanda/internal/middleware"
	"github.com/example/lavanda/internal/models"
	"github.com/example/lavanda/internal/services"
	"github.com/example/lavanda/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	bonus    *services.BonusService
	promo    *services.PromoService
	telegram *services.TelegramService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, bonus *services.BonusService, promo *services.PromoService, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{db: db, bonus: bonus, promo: promo, telegram: telegram}
}

type orderProductRequest struct {
	ProductID        string  `json:"product_id"`
	ProductVariantID string  `json:"product_variant_id"`
	ProductName      string  `json:"product_name"`
	VariantLabel     string  `json:"variant_label"`
	Quantity         int     `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`
}

type createOrderRequest struct {
	DeliveryMethod    string                `json:"delivery_method"`
	DeliveryAddressID string                `json:"delivery_address_id"`
	PickupBranchID    string                `json:"pickup_branch_id"`
	DeliveryDate      string                `json:"delivery_date"`
	DeliverySlot      string                `json:"delivery_slot"`
	DeliveryFee       float64               `json:"delivery_fee"`
	RecipientName     string                `json:"recipient_name"`
	RecipientPhone    string                `json:"recipient_phone"`
	CardMessage       string                `json:"card_message"`
	Currency          string                `json:"currency"`
	Products          []orderProductRequest `json:"products"`
	PromoCode         string                `json:"promo_code"`
	BonusesUsed       int                   `json:"bonuses_used"`
	Notes             string                `json:"notes"`
}

// CreateOrder places an order for the authenticated customer. Bonus
// redemption is debited before the order row exists; cashback is credited
// after it does. A credit failure does not roll the order back — it is
// reported in the response and to the admin chat for manual reconciliation.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Products) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}
	if req.BonusesUsed < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "bonuses_used must not be negative")
	}

	order := models.Order{
		UserID:         userID,
		Status:         models.OrderStatusPending,
		PlacedAt:       time.Now(),
		Currency:       req.Currency,
		DeliveryMethod: req.DeliveryMethod,
		DeliveryFee:    req.DeliveryFee,
		DeliveryDate:   req.DeliveryDate,
		DeliverySlot:   req.DeliverySlot,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		CardMessage:    req.CardMessage,
		BonusesUsed:    req.BonusesUsed,
		Notes:          req.Notes,
	}

	if order.Currency == "" {
		order.Currency = "RUB"
	}

	if req.DeliveryMethod == "address_delivery" && req.DeliveryAddressID != "" {
		if id, err := uuid.Parse(req.DeliveryAddressID); err == nil {
			var address models.UserAddress
			if err := h.db.First(&address, "id = ? AND user_id = ?", id, userID).Error; err == nil {
				order.DeliveryAddressID = &address.ID
				order.DeliveryAddressLine = address.AddressLine
				order.DeliveryApartment = address.Apartment
				order.DeliveryCity = address.City
				order.DeliveryDistrict = address.District
			}
		}
	}

	if req.DeliveryMethod == "store_pickup" && req.PickupBranchID != "" {
		if id, err := uuid.Parse(req.PickupBranchID); err == nil {
			order.PickupBranchID = &id
		}
	}

	var subtotal float64
	for _, p := range req.Products {
		if p.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "item quantity must be positive")
		}

		item := models.OrderItem{
			ProductName:  p.ProductName,
			VariantLabel: p.VariantLabel,
			Quantity:     p.Quantity,
			UnitPrice:    p.UnitPrice,
			LineTotal:    p.UnitPrice * float64(p.Quantity),
		}

		if p.ProductID != "" {
			if id, err := uuid.Parse(p.ProductID); err == nil {
				item.ProductID = &id
			}
		}
		if p.ProductVariantID != "" {
			if id, err := uuid.Parse(p.ProductVariantID); err == nil {
				item.ProductVariantID = &id
			}
		}

		subtotal += item.LineTotal
		order.Items = append(order.Items, item)
	}

	order.Subtotal = subtotal

	if req.PromoCode != "" {
		_, discount, err := h.promo.Validate(req.PromoCode, subtotal)
		if err != nil {
			switch err {
			case services.ErrPromoNotFound, services.ErrPromoExpired,
				services.ErrPromoExhausted, services.ErrPromoMinSubtotal:
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return err
			}
		}
		order.PromoCode = req.PromoCode
		order.PromoDiscount = discount
	}

	order.TotalAmount = order.Subtotal + order.DeliveryFee - order.PromoDiscount - float64(order.BonusesUsed)
	if order.TotalAmount < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "bonuses_used exceeds order total")
	}

	// The order ID is allocated up front so the redemption debit can
	// reference it in the ledger before the row exists.
	order.ID = uuid.New()

	if order.BonusesUsed > 0 {
		if err := h.bonus.Debit(userID, order.BonusesUsed, &order.ID); err != nil {
			if err == services.ErrInsufficientBalance {
				return fiber.NewError(fiber.StatusConflict, "insufficient bonus balance")
			}
			return err
		}
	}

	order.OrderNumber = h.generateOrderNumber()

	if err := h.db.Create(&order).Error; err != nil {
		// The redemption debit has already happened; this needs a human.
		log.Printf("[Order] order insert failed after bonus debit, user %s, bonuses %d: %v",
			userID, order.BonusesUsed, err)
		return err
	}

	if order.PromoCode != "" {
		if err := h.promo.Redeem(order.PromoCode); err != nil {
			log.Printf("[Order] promo redeem failed for order %s: %v", order.OrderNumber, err)
		}
	}

	creditFailed := false
	credited, err := h.bonus.Credit(userID, order.TotalAmount, order.ID)
	if err != nil {
		creditFailed = true
		log.Printf("[Order] bonus credit failed for order %s: %v", order.OrderNumber, err)
		h.notifyCreditFailure(order, userID, err)
	} else {
		order.Bonus = credited
		if err := h.db.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("bonus", credited).Error; err != nil {
			log.Printf("[Order] failed to record credited bonus on order %s: %v", order.OrderNumber, err)
		}
	}

	go h.notifyNewOrder(order, userID, req)

	resp := fiber.Map{
		"success": !creditFailed,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"placed_at":    order.PlacedAt,
			"total":        order.TotalAmount,
			"currency":     order.Currency,
			"bonuses_used": order.BonusesUsed,
			"bonus":        order.Bonus,
		},
	}
	if creditFailed {
		resp["error"] = "order created but bonus crediting failed"
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
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

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *OrderHandler) notifyNewOrder(order models.Order, userID uuid.UUID, req createOrderRequest) {
	if h.telegram == nil {
		return
	}

	userName := "Не указано"
	userPhone := "Не указано"
	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err == nil {
		if user.FirstName != "" || user.LastName != "" {
			userName = user.FirstName + " " + user.LastName
		}
		if user.Phone != "" {
			userPhone = user.Phone
		}
	}

	items := make([]services.OrderItemNotification, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, services.OrderItemNotification{
			Name:     p.ProductName,
			Variant:  p.VariantLabel,
			Quantity: p.Quantity,
			Price:    p.UnitPrice,
		})
	}

	notification := services.OrderNotification{
		OrderNumber:    order.OrderNumber,
		Items:          items,
		TotalAmount:    order.TotalAmount,
		Currency:       order.Currency,
		BonusesUsed:    order.BonusesUsed,
		BonusCredited:  order.Bonus,
		UserName:       userName,
		UserPhone:      userPhone,
		RecipientName:  order.RecipientName,
		RecipientPhone: order.RecipientPhone,
		DeliveryMethod: order.DeliveryMethod,
		DeliveryDate:   order.DeliveryDate,
		CardMessage:    order.CardMessage,
	}

	if err := h.telegram.NotifyNewOrder(notification); err != nil {
		log.Printf("[Order] Telegram notification failed: %v", err)
	}
}

func (h *OrderHandler) notifyCreditFailure(order models.Order, userID uuid.UUID, cause error) {
	if h.telegram == nil {
		return
	}

	var user models.User
	phone := ""
	if err := h.db.First(&user, "id = ?", userID).Error; err == nil {
		phone = user.Phone
	}

	go func() {
		if err := h.telegram.NotifyCreditFailure(order.OrderNumber, phone, cause); err != nil {
			log.Printf("[Order] credit-failure notification failed: %v", err)
		}
	}()
}

func (h *OrderHandler) generateOrderNumber() string {
	return fmt.Sprintf("#%d", time.Now().UnixNano()%1000000000)
}
