package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"toolrental/internal/pkg/config"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/shared"
)

const (
	ordersPath       = "/v1/orders"
	maxErrorBodySize = 4 << 10
)

type RazorpayGateway struct {
	cfg config.GatewayConfig

	once    sync.Once
	client  *http.Client
	baseURL *url.URL
	initErr error
}

func NewRazorpayGateway(cfg config.GatewayConfig) *RazorpayGateway {
	return &RazorpayGateway{cfg: cfg}
}

var _ shared.PaymentGateway = (*RazorpayGateway)(nil)

// lazyClient builds the HTTP client on first use so an unconfigured gateway
// never affects startup.
func (g *RazorpayGateway) lazyClient() (*http.Client, *url.URL, error) {
	g.once.Do(func() {
		u, err := url.Parse(g.cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			g.initErr = errs.Mark(fmt.Errorf("invalid gateway base url %q", g.cfg.BaseURL), shared.ErrGatewayNotConfigured)
			return
		}
		g.baseURL = u
		g.client = &http.Client{Timeout: g.cfg.Timeout}
	})
	return g.client, g.baseURL, g.initErr
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req shared.OrderRequest) (*shared.PaymentOrder, error) {
	if !g.cfg.HasCredentials() {
		return nil, shared.ErrGatewayNotConfigured
	}
	client, base, err := g.lazyClient()
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = g.cfg.Currency
	}
	body, err := json.Marshal(createOrderRequest{
		Amount:   req.AmountMinor,
		Currency: currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode order request")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	endpoint := base.ResolveReference(&url.URL{Path: ordersPath})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(err, "failed to build order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)

	resp, err := client.Do(httpReq)
	if err != nil {
		slog.Warn("payment gateway request failed", "receipt", req.Receipt, "error", err)
		return nil, errs.Mark(errs.Wrap(err, "create order"), shared.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errs.Mark(fmt.Errorf("create order: gateway returned %d", resp.StatusCode), shared.ErrGatewayUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		_ = json.Unmarshal(raw, &e)
		slog.Warn("payment gateway rejected order",
			"receipt", req.Receipt,
			"status", resp.StatusCode,
			"code", e.Error.Code,
			"description", e.Error.Description)
		return nil, errs.Mark(
			fmt.Errorf("create order: gateway returned %d: %s", resp.StatusCode, e.Error.Description),
			shared.ErrGatewayRejected,
		)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode order response"), shared.ErrGatewayUnavailable)
	}
	if out.ID == "" {
		return nil, errs.Mark(errs.New("create order: response has no order id"), shared.ErrGatewayUnavailable)
	}

	return &shared.PaymentOrder{
		ID:          out.ID,
		AmountMinor: out.Amount,
		Currency:    out.Currency,
		Status:      out.Status,
	}, nil
}

func (g *RazorpayGateway) VerifyPaymentSignature(orderRef, paymentRef, signature string) error {
	if !g.cfg.HasCredentials() {
		return shared.ErrGatewayNotConfigured
	}
	if !VerifyPaymentSignature(orderRef, paymentRef, signature, g.cfg.KeySecret) {
		return shared.ErrSignatureMismatch
	}
	return nil
}

func (g *RazorpayGateway) VerifyWebhookSignature(rawBody []byte, signature string) error {
	if !g.WebhookConfigured() {
		return shared.ErrWebhookNotConfigured
	}
	if !VerifyWebhookSignature(rawBody, signature, g.cfg.WebhookSecret) {
		return shared.ErrSignatureMismatch
	}
	return nil
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (g *RazorpayGateway) ParseWebhookEvent(rawBody []byte) (*shared.WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode webhook"), shared.ErrMalformedWebhook)
	}
	if p.Event == "" {
		return nil, errs.Mark(errs.New("webhook has no event name"), shared.ErrMalformedWebhook)
	}
	return &shared.WebhookEvent{
		Event:      p.Event,
		OrderRef:   p.Payload.Payment.Entity.OrderID,
		PaymentRef: p.Payload.Payment.Entity.ID,
	}, nil
}

func (g *RazorpayGateway) WebhookConfigured() bool {
	return g.cfg.WebhookSecret != ""
}

func (g *RazorpayGateway) PublicKey() string {
	return g.cfg.KeyID
}

func (g *RazorpayGateway) Currency() string {
	return g.cfg.Currency
}
