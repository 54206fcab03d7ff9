//go:build unit

package commands_test

import (
	"context"
	"testing"

	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/user"
	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/shared"
	"toolrental/tests/common/builder"
	sharedmock "toolrental/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentCommandsTestSuite struct {
	txFixture
	gateway *sharedmock.MockPaymentGateway
	uc      commands.PaymentCommands
}

func (s *PaymentCommandsTestSuite) SetupTest() {
	s.txFixture.SetupTest()
	s.gateway = sharedmock.NewMockPaymentGateway(s.ctrl)
	s.gateway.EXPECT().Currency().Return("INR").AnyTimes()
	s.gateway.EXPECT().PublicKey().Return("rzp_test_key").AnyTimes()
	s.uc = commands.NewPaymentUseCase(s.uow, s.gateway, s.clock)
}

func (s *PaymentCommandsTestSuite) expectStoredTimes(bb *builder.BookingBuilder, n int) {
	s.bookings.EXPECT().Get(gomock.Any(), gomock.Any(), bb.ID).DoAndReturn(
		func(context.Context, db.DBTX, uuid.UUID) (*booking.Booking, error) {
			return bb.BuildStored(), nil
		},
	).Times(n)
}

func (s *PaymentCommandsTestSuite) TestCreatePayment() {
	s.Run("creates and attaches a new order", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed()
		s.expectStoredTimes(bb, 2)
		s.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req shared.OrderRequest) (*shared.PaymentOrder, error) {
				s.Equal(int64(100000), req.AmountMinor)
				s.Equal("INR", req.Currency)
				s.Equal(bb.ID.String(), req.Receipt)
				s.Equal(bb.ID.String(), req.Notes["booking_id"])
				return &shared.PaymentOrder{ID: "order_new", AmountMinor: req.AmountMinor, Currency: "INR"}, nil
			},
		)
		s.bookings.EXPECT().UpdateState(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.DBTX, b *booking.Booking, prev booking.State) error {
				s.Require().NotNil(b.OrderRef())
				s.Equal("order_new", *b.OrderRef())
				s.Nil(prev.OrderRef)
				s.Equal(booking.StatusConfirmed, b.Status())
				return nil
			},
		)

		res, err := s.uc.CreatePayment(s.ctx, bb.ID, renter(bb))
		s.Require().NoError(err)
		s.Equal(&commands.PaymentOrderResult{
			OrderID:     "order_new",
			AmountMinor: 100000,
			Currency:    "INR",
			Key:         "rzp_test_key",
		}, res)
	})

	s.Run("existing order is returned without calling the gateway", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed().WithOrder("order_old")
		s.expectStoredTimes(bb, 1)

		res, err := s.uc.CreatePayment(s.ctx, bb.ID, renter(bb))
		s.Require().NoError(err)
		s.Equal("order_old", res.OrderID)
	})

	s.Run("concurrent attach keeps the first order", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed()
		s.bookings.EXPECT().Get(gomock.Any(), gomock.Any(), bb.ID).Return(bb.BuildStored(), nil)
		s.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(&shared.PaymentOrder{ID: "order_late"}, nil)
		raced := *bb
		raced.WithOrder("order_first")
		s.bookings.EXPECT().Get(gomock.Any(), gomock.Any(), bb.ID).Return(raced.BuildStored(), nil)

		res, err := s.uc.CreatePayment(s.ctx, bb.ID, renter(bb))
		s.Require().NoError(err)
		s.Equal("order_first", res.OrderID)
	})

	s.Run("gateway outage is surfaced as retryable", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed()
		s.expectStoredTimes(bb, 1)
		s.gateway.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(errs.New("create order: gateway returned 503"), shared.ErrGatewayUnavailable))

		_, err := s.uc.CreatePayment(s.ctx, bb.ID, renter(bb))
		s.True(errs.Is(err, shared.ErrGatewayUnavailable))
	})

	s.Run("preconditions", func() {
		cases := []struct {
			name  string
			bb    *builder.BookingBuilder
			actor func(*builder.BookingBuilder) commands.Actor
			errIs error
		}{
			{"pending booking", builder.NewBookingBuilder(), renter, commands.ErrInvalidBookingStatus},
			{"already paid", builder.NewBookingBuilder().Paid("pay_1"), renter, commands.ErrInvalidBookingStatus},
			{"pay on return", builder.NewBookingBuilder().Confirmed().With(func(b *builder.BookingBuilder) {
				b.PaymentMethod = booking.PaymentMethodPayOnReturn
			}), renter, commands.ErrInvalidBookingStatus},
			{"admin", builder.NewBookingBuilder().Confirmed(), func(*builder.BookingBuilder) commands.Actor {
				return commands.Actor{UserID: uuid.New(), Role: user.RoleAdmin}
			}, commands.ErrForbidden},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.SetupTest()
				s.expectStoredTimes(tc.bb, 1)

				_, err := s.uc.CreatePayment(s.ctx, tc.bb.ID, tc.actor(tc.bb))
				s.True(errs.Is(err, tc.errIs), "got %v", err)
			})
		}
	})
}

func (s *PaymentCommandsTestSuite) expectMarkPaid(bb *builder.BookingBuilder, orderRef, paymentRef string) {
	paid := *bb
	paid.Paid(paymentRef)
	s.bookings.EXPECT().MarkPaidByOrderRef(gomock.Any(), gomock.Any(), orderRef, paymentRef, builder.FixedNow).
		Return(paid.BuildStored(), nil)
	s.expectTool(bb)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment() {
	s.Run("valid signature marks the booking paid", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		s.expectStoredTimes(bb, 1)
		s.gateway.EXPECT().VerifyPaymentSignature("order_1", "pay_1", "sig").Return(nil)
		s.expectMarkPaid(bb, "order_1", "pay_1")

		s.Require().NoError(s.uc.VerifyPayment(s.ctx, bb.ID, renter(bb), "pay_1", "sig"))
		s.Equal(map[string]string{
			bb.RenterID.String(): "Payment Successful",
			bb.OwnerID.String():  "Payment Received",
		}, s.noticeTitles())
		s.Contains(s.topics, "booking.paid")
	})

	s.Run("bad signature", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		s.expectStoredTimes(bb, 1)
		s.gateway.EXPECT().VerifyPaymentSignature("order_1", "pay_1", "forged").Return(shared.ErrSignatureMismatch)

		err := s.uc.VerifyPayment(s.ctx, bb.ID, renter(bb), "pay_1", "forged")
		s.True(errs.Is(err, commands.ErrInvalidSignature))
	})

	s.Run("already paid is a no-op", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Paid("pay_1")
		s.expectStoredTimes(bb, 1)
		s.gateway.EXPECT().VerifyPaymentSignature(*bb.OrderRef, "pay_1", "sig").Return(nil)

		s.NoError(s.uc.VerifyPayment(s.ctx, bb.ID, renter(bb), "pay_1", "sig"))
		s.Empty(s.topics)
	})

	s.Run("webhook won the race", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		s.bookings.EXPECT().Get(gomock.Any(), gomock.Any(), bb.ID).Return(bb.BuildStored(), nil)
		s.gateway.EXPECT().VerifyPaymentSignature("order_1", "pay_1", "sig").Return(nil)
		s.bookings.EXPECT().MarkPaidByOrderRef(gomock.Any(), gomock.Any(), "order_1", "pay_1", builder.FixedNow).Return(nil, nil)
		paid := *bb
		paid.Paid("pay_1")
		s.bookings.EXPECT().Get(gomock.Any(), gomock.Any(), bb.ID).Return(paid.BuildStored(), nil)

		s.NoError(s.uc.VerifyPayment(s.ctx, bb.ID, renter(bb), "pay_1", "sig"))
		s.Empty(s.notices)
	})

	s.Run("order missing", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed()
		s.expectStoredTimes(bb, 1)

		err := s.uc.VerifyPayment(s.ctx, bb.ID, renter(bb), "pay_1", "sig")
		s.True(errs.Is(err, commands.ErrPaymentOrderMissing))
	})

	s.Run("owner cannot verify", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		s.expectStoredTimes(bb, 1)

		err := s.uc.VerifyPayment(s.ctx, bb.ID, owner(bb), "pay_1", "sig")
		s.True(errs.Is(err, commands.ErrForbidden))
	})

	s.Run("cancelled booking", func() {
		s.SetupTest()
		bb := builder.NewBookingBuilder().WithOrder("order_1").With(func(b *builder.BookingBuilder) {
			b.Status = booking.StatusCancelled
		})
		s.expectStoredTimes(bb, 1)
		s.gateway.EXPECT().VerifyPaymentSignature("order_1", "pay_1", "sig").Return(nil)

		err := s.uc.VerifyPayment(s.ctx, bb.ID, renter(bb), "pay_1", "sig")
		s.True(errs.Is(err, commands.ErrInvalidBookingStatus))
	})
}

func (s *PaymentCommandsTestSuite) TestHandleWebhook() {
	body := []byte(`{"event":"payment.captured"}`)
	captured := &shared.WebhookEvent{Event: shared.WebhookEventPaymentCaptured, OrderRef: "order_1", PaymentRef: "pay_1"}

	s.Run("not configured", func() {
		s.SetupTest()
		s.gateway.EXPECT().WebhookConfigured().Return(false)

		_, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.ErrorIs(err, shared.ErrWebhookNotConfigured)
	})

	s.Run("missing signature", func() {
		s.SetupTest()
		s.gateway.EXPECT().WebhookConfigured().Return(true)

		_, err := s.uc.HandleWebhook(s.ctx, body, "")
		s.ErrorIs(err, commands.ErrMissingSignature)
	})

	s.Run("invalid signature", func() {
		s.SetupTest()
		s.gateway.EXPECT().WebhookConfigured().Return(true)
		s.gateway.EXPECT().VerifyWebhookSignature(body, "bad").Return(shared.ErrSignatureMismatch)

		_, err := s.uc.HandleWebhook(s.ctx, body, "bad")
		s.True(errs.Is(err, commands.ErrInvalidSignature))
	})

	s.Run("malformed payload with a valid signature is acknowledged", func() {
		s.SetupTest()
		s.gateway.EXPECT().WebhookConfigured().Return(true)
		s.gateway.EXPECT().VerifyWebhookSignature(body, "sig").Return(nil)
		s.gateway.EXPECT().ParseWebhookEvent(body).Return(nil, errs.Mark(errs.New("decode webhook"), shared.ErrMalformedWebhook))

		outcome, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.Require().NoError(err)
		s.Equal(commands.WebhookIgnored, outcome)
	})

	s.Run("other events are ignored", func() {
		s.SetupTest()
		s.gateway.EXPECT().WebhookConfigured().Return(true)
		s.gateway.EXPECT().VerifyWebhookSignature(body, "sig").Return(nil)
		s.gateway.EXPECT().ParseWebhookEvent(body).Return(&shared.WebhookEvent{Event: "payment.failed", OrderRef: "order_1"}, nil)

		outcome, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.Require().NoError(err)
		s.Equal(commands.WebhookIgnored, outcome)
	})

	expectValid := func() {
		s.gateway.EXPECT().WebhookConfigured().Return(true)
		s.gateway.EXPECT().VerifyWebhookSignature(body, "sig").Return(nil)
		s.gateway.EXPECT().ParseWebhookEvent(body).Return(captured, nil)
	}

	s.Run("capture marks booking paid", func() {
		s.SetupTest()
		expectValid()
		bb := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		s.expectMarkPaid(bb, "order_1", "pay_1")

		outcome, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.Require().NoError(err)
		s.Equal(commands.WebhookApplied, outcome)
		s.Len(s.notices, 2)
	})

	s.Run("duplicate delivery", func() {
		s.SetupTest()
		expectValid()
		bb := builder.NewBookingBuilder().Paid("pay_1").WithOrder("order_1")
		s.bookings.EXPECT().MarkPaidByOrderRef(gomock.Any(), gomock.Any(), "order_1", "pay_1", builder.FixedNow).Return(nil, nil)
		s.bookings.EXPECT().GetByOrderRef(gomock.Any(), gomock.Any(), "order_1").Return(bb.BuildStored(), nil)

		outcome, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.Require().NoError(err)
		s.Equal(commands.WebhookAlreadyPaid, outcome)
		s.Empty(s.notices)
	})

	s.Run("unknown order", func() {
		s.SetupTest()
		expectValid()
		s.bookings.EXPECT().MarkPaidByOrderRef(gomock.Any(), gomock.Any(), "order_1", "pay_1", builder.FixedNow).Return(nil, nil)
		s.bookings.EXPECT().GetByOrderRef(gomock.Any(), gomock.Any(), "order_1").
			Return(nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound))

		outcome, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.Require().NoError(err)
		s.Equal(commands.WebhookUnknownOrder, outcome)
	})

	s.Run("capture for cancelled booking", func() {
		s.SetupTest()
		expectValid()
		bb := builder.NewBookingBuilder().WithOrder("order_1").With(func(b *builder.BookingBuilder) {
			b.Status = booking.StatusCancelled
		})
		s.bookings.EXPECT().MarkPaidByOrderRef(gomock.Any(), gomock.Any(), "order_1", "pay_1", builder.FixedNow).Return(nil, nil)
		s.bookings.EXPECT().GetByOrderRef(gomock.Any(), gomock.Any(), "order_1").Return(bb.BuildStored(), nil)

		outcome, err := s.uc.HandleWebhook(s.ctx, body, "sig")
		s.Require().NoError(err)
		s.Equal(commands.WebhookClosedBooking, outcome)
	})
}

func TestPaymentCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentCommandsTestSuite))
}
