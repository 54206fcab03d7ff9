package shared

import (
	"context"

	"toolrental/internal/pkg/errs"
)

var (
	ErrGatewayNotConfigured = errs.New("payment gateway is not configured")
	ErrWebhookNotConfigured = errs.New("payment webhook secret is not configured")
	ErrGatewayUnavailable   = errs.New("payment gateway unavailable")
	ErrGatewayRejected      = errs.New("payment gateway rejected the request")
	ErrSignatureMismatch    = errs.New("signature mismatch")
	ErrMalformedWebhook     = errs.New("malformed webhook payload")
)

const WebhookEventPaymentCaptured = "payment.captured"

type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type PaymentOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

type WebhookEvent struct {
	Event      string
	OrderRef   string
	PaymentRef string
}

// PaymentGateway hides the provider's API and signature schemes from use cases.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*PaymentOrder, error)
	VerifyPaymentSignature(orderRef, paymentRef, signature string) error
	VerifyWebhookSignature(rawBody []byte, signature string) error
	ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error)
	WebhookConfigured() bool
	PublicKey() string
	Currency() string
}
