//go:build unit

package booking_test

import (
	"testing"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.BookingBuilder)
	errIs  error
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := builder.NewBookingBuilder()
			if tc.mutate != nil {
				b.With(tc.mutate)
			}
			actual, err := b.BuildDomain()
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				assert.Nil(t, actual)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, actual)
		})
	}
}

func TestNewBooking(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		b := builder.NewBookingBuilder()
		actual, err := b.BuildDomain()
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, booking.StatusPending, actual.Status())
		assert.Equal(t, booking.PaymentPending, actual.PaymentStatus())
		assert.Equal(t, booking.PaymentMethodGateway, actual.PaymentMethod())
		assert.Equal(t, b.OwnerID, actual.OwnerID())
		assert.Equal(t, b.ShopID, actual.ShopID())
		assert.Equal(t, 5, actual.DurationHours())
		assert.Equal(t, int64(50000), actual.RentalPrice().Minor())
		assert.Equal(t, int64(50000), actual.Deposit().Minor())
		assert.Equal(t, int64(100000), actual.Total().Minor())
		assert.Nil(t, actual.OrderRef())
		assert.Nil(t, actual.PickupTime())
		assert.Equal(t, builder.FixedNow, actual.CreatedAt())
		assert.Equal(t, actual.CreatedAt(), actual.UpdatedAt())
	})

	t.Run("caller supplied amounts override tool rates", func(t *testing.T) {
		rental, deposit := int64(20000), int64(1000)
		actual, err := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
			b.Quantity = 2
			b.RentalPrice = &rental
			b.DepositAmount = &deposit
		}).BuildDomain()
		require.NoError(t, err)

		assert.Equal(t, int64(20000), actual.RentalPrice().Minor())
		assert.Equal(t, int64(1000), actual.Deposit().Minor())
		assert.Equal(t, int64(41000), actual.Total().Minor())
	})

	t.Run("validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "zero quantity",
				mutate: func(b *builder.BookingBuilder) { b.Quantity = 0 },
				errIs:  booking.ErrInvalidQuantity,
			},
			{
				name:   "quantity equal to available",
				mutate: func(b *builder.BookingBuilder) { b.Quantity = 3 },
			},
			{
				name:   "quantity above available",
				mutate: func(b *builder.BookingBuilder) { b.Quantity = 4 },
				errIs:  booking.ErrInsufficientInventory,
			},
			{
				name:   "owner books own tool",
				mutate: func(b *builder.BookingBuilder) { b.RenterID = b.OwnerID },
				errIs:  booking.ErrSelfBooking,
			},
			{
				name:   "tool not available",
				mutate: func(b *builder.BookingBuilder) { b.IsAvailable = false },
				errIs:  booking.ErrToolUnavailable,
			},
			{
				name: "start in the past",
				mutate: func(b *builder.BookingBuilder) {
					b.StartTime = b.Now.Add(-time.Minute)
				},
				errIs: booking.ErrStartInPast,
			},
			{
				name:   "start exactly now",
				mutate: func(b *builder.BookingBuilder) { b.StartTime = b.Now },
			},
			{
				name:   "unknown payment method",
				mutate: func(b *builder.BookingBuilder) { b.PaymentMethod = "cash" },
				errIs:  booking.ErrInvalidPaymentMethod,
			},
			{
				name: "rental price times quantity overflows",
				mutate: func(b *builder.BookingBuilder) {
					rental := int64(4_000_000_000_000_000_000)
					b.RentalPrice = &rental
					b.Quantity = 1000
					b.QuantityAvailable = 1000
				},
				errIs: booking.ErrInvalidAmount,
			},
			{
				name: "hourly rate too large to quote",
				mutate: func(b *builder.BookingBuilder) {
					b.PricePerHour = 1 << 62
				},
				errIs: booking.ErrInvalidAmount,
			},
			{
				name:   "end before start",
				mutate: func(b *builder.BookingBuilder) { b.EndTime = b.StartTime.Add(-time.Hour) },
				errIs:  booking.ErrInvalidPeriod,
			},
		})
	})
}

func TestStatusTransitions(t *testing.T) {
	all := []booking.Status{
		booking.StatusPending, booking.StatusConfirmed, booking.StatusActive,
		booking.StatusReturned, booking.StatusCancelled,
	}
	allowed := map[[2]booking.Status]bool{
		{booking.StatusPending, booking.StatusConfirmed}:   true,
		{booking.StatusPending, booking.StatusCancelled}:   true,
		{booking.StatusConfirmed, booking.StatusActive}:    true,
		{booking.StatusConfirmed, booking.StatusCancelled}: true,
		{booking.StatusActive, booking.StatusReturned}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]booking.Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, booking.StatusReturned.IsTerminal())
	assert.True(t, booking.StatusCancelled.IsTerminal())
	assert.False(t, booking.StatusActive.IsTerminal())

	_, err := booking.ParseStatus("refunded")
	assert.ErrorIs(t, err, booking.ErrInvalidStatus)
}

func TestBookingLifecycle(t *testing.T) {
	at := builder.FixedNow.Add(time.Hour)
	stranger := uuid.New()

	t.Run("confirm", func(t *testing.T) {
		b := builder.NewBookingBuilder()

		bk := b.BuildStored()
		assert.ErrorIs(t, bk.Confirm(b.RenterID, at), booking.ErrNotShopOwner)
		require.NoError(t, bk.Confirm(b.OwnerID, at))
		assert.Equal(t, booking.StatusConfirmed, bk.Status())
		assert.Equal(t, at, bk.UpdatedAt())

		assert.ErrorIs(t, bk.Confirm(b.OwnerID, at), booking.ErrInvalidTransition)
	})

	t.Run("cancel", func(t *testing.T) {
		b := builder.NewBookingBuilder()

		bk := b.BuildStored()
		assert.ErrorIs(t, bk.Cancel(stranger, at), booking.ErrNotBookingParty)
		require.NoError(t, bk.Cancel(b.RenterID, at))
		assert.Equal(t, booking.StatusCancelled, bk.Status())
		assert.ErrorIs(t, bk.Cancel(b.OwnerID, at), booking.ErrInvalidTransition)

		confirmed := builder.NewBookingBuilder().Confirmed()
		bk = confirmed.BuildStored()
		require.NoError(t, bk.Cancel(confirmed.OwnerID, at))

		active := builder.NewBookingBuilder().Paid("pay_1")
		bk = active.BuildStored()
		assert.ErrorIs(t, bk.Cancel(active.RenterID, at), booking.ErrInvalidTransition)
	})

	t.Run("payable", func(t *testing.T) {
		b := builder.NewBookingBuilder()
		assert.ErrorIs(t, b.BuildStored().EnsurePayable(b.RenterID), booking.ErrInvalidTransition)

		b.Confirmed()
		assert.NoError(t, b.BuildStored().EnsurePayable(b.RenterID))
		assert.NoError(t, b.BuildStored().EnsurePayable(b.OwnerID))
		assert.ErrorIs(t, b.BuildStored().EnsurePayable(stranger), booking.ErrNotBookingParty)

		cash := builder.NewBookingBuilder().Confirmed().With(func(b *builder.BookingBuilder) {
			b.PaymentMethod = booking.PaymentMethodPayOnReturn
		})
		assert.ErrorIs(t, cash.BuildStored().EnsurePayable(cash.RenterID), booking.ErrPaymentMethodMismatch)

		paid := builder.NewBookingBuilder().Paid("pay_1")
		assert.ErrorIs(t, paid.BuildStored().EnsurePayable(paid.RenterID), booking.ErrAlreadyPaid)
	})

	t.Run("verifiable", func(t *testing.T) {
		b := builder.NewBookingBuilder().Confirmed()
		assert.ErrorIs(t, b.BuildStored().EnsureVerifiable(b.RenterID), booking.ErrPaymentOrderMissing)

		b.WithOrder("order_1")
		assert.NoError(t, b.BuildStored().EnsureVerifiable(b.RenterID))
		assert.ErrorIs(t, b.BuildStored().EnsureVerifiable(b.OwnerID), booking.ErrNotRenter)
	})

	t.Run("mark paid", func(t *testing.T) {
		b := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		bk := b.BuildStored()

		require.NoError(t, bk.MarkPaid("pay_1", at))
		assert.Equal(t, booking.StatusActive, bk.Status())
		assert.Equal(t, booking.PaymentPaid, bk.PaymentStatus())
		require.NotNil(t, bk.PaymentRef())
		assert.Equal(t, "pay_1", *bk.PaymentRef())
		assert.ErrorIs(t, bk.MarkPaid("pay_2", at), booking.ErrAlreadyPaid)

		cancelled := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
			b.Status = booking.StatusCancelled
		}).BuildStored()
		assert.ErrorIs(t, cancelled.MarkPaid("pay_1", at), booking.ErrInvalidTransition)
	})

	t.Run("gateway pickup requires payment", func(t *testing.T) {
		b := builder.NewBookingBuilder().Confirmed()
		assert.ErrorIs(t, b.BuildStored().Pickup(b.OwnerID, at), booking.ErrInvalidTransition)

		b.Paid("pay_1")
		bk := b.BuildStored()
		assert.ErrorIs(t, bk.Pickup(b.RenterID, at), booking.ErrNotShopOwner)
		require.NoError(t, bk.Pickup(b.OwnerID, at))
		assert.Equal(t, booking.StatusActive, bk.Status())
		require.NotNil(t, bk.PickupTime())
		assert.True(t, bk.State().PickedUp)
		assert.ErrorIs(t, bk.Pickup(b.OwnerID, at), booking.ErrAlreadyPickedUp)
	})

	t.Run("pay on return pickup activates", func(t *testing.T) {
		b := builder.NewBookingBuilder().Confirmed().With(func(b *builder.BookingBuilder) {
			b.PaymentMethod = booking.PaymentMethodPayOnReturn
		})
		bk := b.BuildStored()

		require.NoError(t, bk.Pickup(b.OwnerID, at))
		assert.Equal(t, booking.StatusActive, bk.Status())
		assert.Equal(t, booking.PaymentPending, bk.PaymentStatus())

		require.NoError(t, bk.Return(b.OwnerID, at.Add(time.Hour)))
		assert.Equal(t, booking.StatusReturned, bk.Status())
		assert.Equal(t, booking.PaymentPaid, bk.PaymentStatus())
		require.NotNil(t, bk.ReturnTime())
		assert.Equal(t, at.Add(time.Hour), *bk.ReturnTime())
	})

	t.Run("return", func(t *testing.T) {
		b := builder.NewBookingBuilder().Confirmed()
		assert.ErrorIs(t, b.BuildStored().Return(b.OwnerID, at), booking.ErrInvalidTransition)

		b.Paid("pay_1")
		bk := b.BuildStored()
		assert.ErrorIs(t, bk.Return(b.RenterID, at), booking.ErrNotShopOwner)
		require.NoError(t, bk.Return(b.OwnerID, at))
		assert.Equal(t, booking.StatusReturned, bk.Status())
		assert.Equal(t, booking.PaymentPaid, bk.PaymentStatus())
	})

	t.Run("state snapshot", func(t *testing.T) {
		b := builder.NewBookingBuilder().Confirmed().WithOrder("order_1")
		state := b.BuildStored().State()

		assert.Equal(t, booking.StatusConfirmed, state.Status)
		assert.Equal(t, booking.PaymentPending, state.PaymentStatus)
		require.NotNil(t, state.OrderRef)
		assert.Equal(t, "order_1", *state.OrderRef)
		assert.False(t, state.PickedUp)
	})
}
