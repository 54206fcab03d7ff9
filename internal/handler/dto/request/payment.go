package request

type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}
