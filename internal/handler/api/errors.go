package api

import (
	"log/slog"
	"net/http"

	"toolrental/internal/handler/httperr"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"
	"toolrental/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target error
	status int
	msg    string
}

var errorMappings = []errorMapping{
	{commands.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{commands.ErrInvalidBookingStatus, http.StatusBadRequest, "Invalid booking status for this action"},
	{commands.ErrPaymentOrderMissing, http.StatusBadRequest, "Payment order has not been created"},
	{commands.ErrInvalidSignature, http.StatusBadRequest, "Invalid signature"},
	{commands.ErrMissingSignature, http.StatusBadRequest, "Missing signature"},
	{queries.ErrInvalidCursor, http.StatusBadRequest, "Invalid cursor"},
	{queries.ErrInvalidFilter, http.StatusBadRequest, "Invalid filter"},
	{commands.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{commands.ErrToolNotFound, http.StatusNotFound, "Tool not found"},
	{commands.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
	{queries.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
	{commands.ErrNotificationNotFound, http.StatusNotFound, "Notification not found"},
	{commands.ErrInsufficientInventory, http.StatusConflict, "Insufficient inventory"},
	{commands.ErrBookingStateConflict, http.StatusConflict, "Booking was modified by another request"},
	{commands.ErrIdempotencyInProgress, http.StatusConflict, "Request with this idempotency key is in progress"},
	{commands.ErrIdempotencyKeyReused, http.StatusConflict, "Idempotency key was used with a different request"},
}

// abortWithUseCaseError maps use case sentinels to HTTP statuses.
func abortWithUseCaseError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errs.Is(err, m.target) {
			httperr.AbortWithError(c, m.status, err, m.msg, nil)
			return
		}
	}

	switch {
	case errs.Is(err, shared.ErrGatewayUnavailable):
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Payment gateway unavailable", gin.H{"retryable": true})
	case errs.Is(err, shared.ErrGatewayRejected):
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Payment gateway rejected the request", gin.H{"retryable": false})
	case errs.Is(err, shared.ErrGatewayNotConfigured),
		errs.Is(err, shared.ErrWebhookNotConfigured):
		slog.Error("payment gateway misconfigured", "error", err)
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Payment gateway is not configured", gin.H{"retryable": false})
	default:
		slog.Error("unhandled use case error", "error", err, "path", c.FullPath())
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
