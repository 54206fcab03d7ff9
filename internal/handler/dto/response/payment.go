package response

import "toolrental/internal/usecase/commands"

type PaymentOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// FromPaymentOrder reports the amount in minor units, as the checkout widget expects.
func FromPaymentOrder(r *commands.PaymentOrderResult) *PaymentOrderResponse {
	return &PaymentOrderResponse{
		OrderID:  r.OrderID,
		Amount:   r.AmountMinor,
		Currency: r.Currency,
		Key:      r.Key,
	}
}
