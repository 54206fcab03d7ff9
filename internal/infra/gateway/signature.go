package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns hex(HMAC_SHA256(secret, payload)).
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a webhook body against the X-Razorpay-Signature value.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(rawBody, secret)), []byte(signature))
}

// VerifyPaymentSignature checks the checkout callback signature over "order_id|payment_id".
func VerifyPaymentSignature(orderRef, paymentRef, signature, keySecret string) bool {
	if signature == "" || keySecret == "" {
		return false
	}
	return hmac.Equal([]byte(Sign([]byte(orderRef+"|"+paymentRef), keySecret)), []byte(signature))
}
