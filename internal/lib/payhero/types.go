package payhero

// STKPushRequest — запрос на отправку STK push на телефон покупателя.
type STKPushRequest struct {
	Amount            float64 `json:"amount"`
	PhoneNumber       string  `json:"phone_number"`
	ChannelID         int     `json:"channel_id"`
	Provider          string  `json:"provider"`
	ExternalReference string  `json:"external_reference"`
	CallbackURL       string  `json:"callback_url"`
	CustomerName      string  `json:"customer_name,omitempty"`
}

// STKPushResponse — ответ шлюза на инициацию платежа.
type STKPushResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// WhatsAppTextRequest — текстовое сообщение через WhatsApp-сессию PayHero.
type WhatsAppTextRequest struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"`
	Session     string `json:"session"`
}
