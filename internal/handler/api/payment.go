package api

import (
	"io"
	"log/slog"
	"net/http"

	reqdto "toolrental/internal/handler/dto/request"
	resdto "toolrental/internal/handler/dto/response"
	"toolrental/internal/handler/httperr"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

const (
	headerWebhookSignature = "X-Razorpay-Signature"
	maxWebhookBodyBytes    = 1 << 20
)

type PaymentHandler struct {
	cmds     commands.PaymentCommands
	bookings queries.BookingQueries
}

func NewPaymentHandler(cmds commands.PaymentCommands, bookings queries.BookingQueries) *PaymentHandler {
	return &PaymentHandler{cmds: cmds, bookings: bookings}
}

// @Summary Create payment order
// @Description Create (or reuse) the gateway order for a confirmed booking
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.PaymentOrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /bookings/{id}/create_payment [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.cmds.CreatePayment(c.Request.Context(), id, actor)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromPaymentOrder(order))
}

// @Summary Verify payment
// @Description Verify the checkout signature and mark the booking paid. Repeating a verified payment is a no-op.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.VerifyPaymentRequest true "Payment callback"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/verify_payment [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reqdto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if err := h.cmds.VerifyPayment(c.Request.Context(), id, actor, req.PaymentID, req.Signature); err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	view, err := h.bookings.GetByIDSystem(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	res, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Payment webhook
// @Description Gateway push notification. The signature covers the raw request body.
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "HMAC-SHA256 of the body"
// @Success 200 {object} map[string]string
// @Failure 400 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}

	outcome, err := h.cmds.HandleWebhook(c.Request.Context(), raw, c.GetHeader(headerWebhookSignature))
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	slog.Info("payment webhook handled", "outcome", string(outcome))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
