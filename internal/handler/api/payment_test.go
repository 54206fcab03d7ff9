//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"toolrental/internal/domain/user"
	"toolrental/internal/handler/api"
	reqdto "toolrental/internal/handler/dto/request"
	resdto "toolrental/internal/handler/dto/response"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/shared"
	"toolrental/tests/common/builder"
	"toolrental/tests/common/httptest"
	"toolrental/tests/common/testutil"
	commandsmock "toolrental/tests/mock/commands"
	queriesmock "toolrental/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.PaymentHandler
	bb           *builder.BookingBuilder
	actor        commands.Actor
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewPaymentHandler(s.mockCommands, s.mockQueries)

	s.bb = builder.NewBookingBuilder().Confirmed()
	s.actor = commands.Actor{UserID: s.bb.RenterID, Role: user.RoleRenter}

	auth := fakeAuth(&s.actor)
	s.router.POST("/bookings/:id/create_payment", auth, s.handler.CreatePayment)
	s.router.POST("/bookings/:id/verify_payment", auth, s.handler.VerifyPayment)
	s.router.POST("/payments/webhook", s.handler.Webhook)
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

// ================================================================================
// TestCreatePayment
// ================================================================================

func (s *PaymentHandlerTestSuite) TestCreatePayment() {
	url := "/bookings/" + s.bb.ID.String() + "/create_payment"

	s.Run("success: returns the checkout order", func() {
		s.mockCommands.EXPECT().CreatePayment(gomock.Any(), s.bb.ID, s.actor).
			Return(&commands.PaymentOrderResult{OrderID: "order_1", AmountMinor: 100000, Currency: "INR", Key: "rzp_test_key"}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

		var body resdto.PaymentOrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(resdto.PaymentOrderResponse{OrderID: "order_1", Amount: 100000, Currency: "INR", Key: "rzp_test_key"}, body)
	})

	s.Run("error: maps usecase and gateway errors", func() {
		cases := []struct {
			name      string
			err       error
			status    int
			msg       string
			retryable bool
		}{
			{"not confirmed", commands.ErrInvalidBookingStatus, http.StatusBadRequest, "Invalid booking status", false},
			{"not the renter", commands.ErrForbidden, http.StatusForbidden, "Forbidden", false},
			{"missing booking", commands.ErrBookingNotFound, http.StatusNotFound, "Booking not found", false},
			{"gateway unavailable", shared.ErrGatewayUnavailable, http.StatusInternalServerError, "unavailable", true},
			{"gateway rejected", shared.ErrGatewayRejected, http.StatusInternalServerError, "rejected", false},
			{"gateway not configured", shared.ErrGatewayNotConfigured, http.StatusInternalServerError, "not configured", false},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreatePayment(gomock.Any(), s.bb.ID, s.actor).Return(nil, tc.err).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.status, tc.msg)

				var body struct {
					Detail struct {
						Retryable bool `json:"retryable"`
					} `json:"detail"`
				}
				_ = httptest.DecodeResponseBody(s.T(), rec.Body, &body)
				s.Equal(tc.retryable, body.Detail.Retryable)
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

// ================================================================================
// TestVerifyPayment
// ================================================================================

func (s *PaymentHandlerTestSuite) TestVerifyPayment() {
	url := "/bookings/" + s.bb.ID.String() + "/verify_payment"
	reqBody := reqdto.VerifyPaymentRequest{PaymentID: "pay_1", Signature: "sig"}

	s.Run("success: returns the paid booking", func() {
		paid := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) { b.ID = s.bb.ID }).Paid("pay_1").BuildView()
		s.mockCommands.EXPECT().VerifyPayment(gomock.Any(), s.bb.ID, s.actor, "pay_1", "sig").Return(nil).Times(1)
		s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), s.bb.ID).Return(paid, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("active", body.Status)
		s.Equal("paid", body.PaymentStatus)
	})

	s.Run("error: 400 on missing fields", func() {
		for _, field := range []string{"paymentId", "signature"} {
			requestMap := testutil.DtoMap(s.T(), reqBody, testutil.Field(field, nil))
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
		}
	})

	s.Run("error: maps usecase errors", func() {
		cases := []struct {
			err    error
			status int
			msg    string
		}{
			{commands.ErrInvalidSignature, http.StatusBadRequest, "Invalid signature"},
			{commands.ErrPaymentOrderMissing, http.StatusBadRequest, "Payment order has not been created"},
			{commands.ErrBookingStateConflict, http.StatusConflict, "modified by another request"},
		}
		for _, tc := range cases {
			s.mockCommands.EXPECT().VerifyPayment(gomock.Any(), s.bb.ID, s.actor, "pay_1", "sig").Return(tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
			httptest.AssertErrorResponse(s.T(), rec, tc.status, tc.msg)
		}
	})
}

// ================================================================================
// TestWebhook
// ================================================================================

func (s *PaymentHandlerTestSuite) TestWebhook() {
	url := "/payments/webhook"
	payload := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)

	s.Run("success: acknowledges every handled outcome", func() {
		outcomes := []commands.WebhookOutcome{
			commands.WebhookApplied,
			commands.WebhookAlreadyPaid,
			commands.WebhookIgnored,
			commands.WebhookUnknownOrder,
			commands.WebhookClosedBooking,
		}
		for _, outcome := range outcomes {
			s.mockCommands.EXPECT().HandleWebhook(gomock.Any(), payload, "sig-1").Return(outcome, nil).Times(1)

			rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, payload, map[string]string{
				"Content-Type":         "application/json",
				"X-Razorpay-Signature": "sig-1",
			})

			var body map[string]string
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
			s.Equal("ok", body["status"], "outcome %s", outcome)
		}
	})

	s.Run("success: does not require a bearer token", func() {
		s.mockCommands.EXPECT().HandleWebhook(gomock.Any(), payload, "sig-1").Return(commands.WebhookApplied, nil).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, payload, map[string]string{
			"X-Razorpay-Signature": "sig-1",
		})
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: signature problems are 400", func() {
		s.mockCommands.EXPECT().HandleWebhook(gomock.Any(), payload, "").Return(commands.WebhookOutcome(""), commands.ErrMissingSignature).Times(1)
		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, payload, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Missing signature")

		s.mockCommands.EXPECT().HandleWebhook(gomock.Any(), payload, "forged").Return(commands.WebhookOutcome(""), commands.ErrInvalidSignature).Times(1)
		rec = httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, payload, map[string]string{
			"X-Razorpay-Signature": "forged",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid signature")
	})

	s.Run("error: 500 when the webhook secret is missing", func() {
		s.mockCommands.EXPECT().HandleWebhook(gomock.Any(), payload, "sig-1").Return(commands.WebhookOutcome(""), shared.ErrWebhookNotConfigured).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, payload, map[string]string{
			"X-Razorpay-Signature": "sig-1",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "not configured")
	})

	s.Run("error: 500 on unexpected failure so the gateway retries", func() {
		s.mockCommands.EXPECT().HandleWebhook(gomock.Any(), payload, "sig-1").Return(commands.WebhookOutcome(""), errors.New("db down")).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, url, payload, map[string]string{
			"X-Razorpay-Signature": "sig-1",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})
}
