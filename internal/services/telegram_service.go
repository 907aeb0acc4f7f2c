package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotification contains order data for a Telegram notification.
type OrderNotification struct {
	OrderNumber    string
	Items          []OrderItemNotification
	TotalAmount    float64
	Currency       string
	BonusesUsed    int
	BonusCredited  int
	UserName       string
	UserPhone      string
	RecipientName  string
	RecipientPhone string
	DeliveryMethod string
	DeliveryDate   string
	CardMessage    string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Variant  string
	Quantity int
	Price    float64
}

// FormatPrice formats a price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "RUB"
	}
	intAmount := int64(amount)
	str := fmt.Sprintf("%d", intAmount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(" ")
		}
		result.WriteRune(digit)
	}

	if currency == "RUB" {
		return result.String() + " ₽"
	}
	return result.String() + " " + currency
}

// NotifyNewOrder sends a new-order notification to the admin chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		name := item.Name
		if item.Variant != "" {
			name = name + " (" + item.Variant + ")"
		}
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			name,
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(item.Price*float64(item.Quantity), order.Currency),
		))
	}

	deliveryText := "Курьером"
	if order.DeliveryMethod == "store_pickup" {
		deliveryText = "Самовывоз"
	}

	var bonusLines strings.Builder
	if order.BonusesUsed > 0 {
		bonusLines.WriteString(fmt.Sprintf("<b>🎁 Списано бонусов:</b> %d\n", order.BonusesUsed))
	}
	if order.BonusCredited > 0 {
		bonusLines.WriteString(fmt.Sprintf("<b>💎 Начислено бонусов:</b> %d\n", order.BonusCredited))
	}

	recipient := order.RecipientName
	if recipient == "" {
		recipient = order.UserName
	}

	message := fmt.Sprintf(`<b>💐 НОВЫЙ ЗАКАЗ!</b>
<b>📋 Заказ:</b> %s
<b>👤 Клиент:</b> %s
<b>📞 Телефон:</b> %s
<b>🎀 Получатель:</b> %s
<b>🌷 Состав:</b>
%s<b>💰 Итого:</b> %s
%s<b>🚚 Доставка:</b> %s, %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderNumber,
		order.UserName,
		order.UserPhone,
		recipient,
		itemsList.String(),
		FormatPrice(order.TotalAmount, order.Currency),
		bonusLines.String(),
		deliveryText,
		order.DeliveryDate,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyCreditFailure alerts the admin chat that cashback crediting failed
// for an existing order and needs manual reconciliation.
func (s *TelegramService) NotifyCreditFailure(orderNumber, phone string, err error) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>⚠️ ОШИБКА НАЧИСЛЕНИЯ БОНУСОВ</b>
<b>📋 Заказ:</b> %s
<b>📞 Телефон:</b> %s
<b>Ошибка:</b> %v
Заказ создан, бонусы не начислены — требуется ручная сверка.`,
		orderNumber, phone, err)

	return s.SendToAdmin(strings.TrimSpace(message))
}
