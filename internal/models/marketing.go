package models

type Banner struct {
	BaseModel
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Image        string `json:"image"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

type PickupBranch struct {
	BaseModel
	Name         string  `json:"name"`
	AddressLine  string  `json:"address_line"`
	District     string  `json:"district"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	WorkingHours string  `json:"working_hours"`
	ContactPhone string  `json:"contact_phone"`
	IsActive     bool    `json:"is_active"`
}

// SiteSettings stores shop contact details shown in the storefront footer.
// There should be only one row (singleton pattern).
type SiteSettings struct {
	BaseModel
	ShopName     string `json:"shop_name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Phone2       string `json:"phone2"`
	Email        string `json:"email"`
	WorkingHours string `json:"working_hours"`

	Telegram  string `json:"telegram"`
	Instagram string `json:"instagram"`
	Vkontakte string `json:"vkontakte"`
	Whatsapp  string `json:"whatsapp"`

	TelegramEnabled  bool `json:"telegram_enabled"`
	InstagramEnabled bool `json:"instagram_enabled"`
	VkontakteEnabled bool `json:"vkontakte_enabled"`
	WhatsappEnabled  bool `json:"whatsapp_enabled"`

	DeliveryInfo  string `json:"delivery_info"`
	CopyrightText string `json:"copyright_text"`
}
