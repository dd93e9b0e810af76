package payment

type InitiatePaymentResponse struct {
	DraftID     string  `json:"draft_id"`
	RedirectURL string  `json:"redirect_url"`
	TotalPrice  float64 `json:"total_price"`
	Status      string  `json:"status"`
}
