package components

import (
	"toolrental/internal/handler"
	"toolrental/internal/handler/api"
	"toolrental/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewPaymentHandler,
		api.NewNotificationHandler,
		middleware.NewAuthMiddleware,
		func(b *api.BookingHandler, p *api.PaymentHandler, n *api.NotificationHandler) handler.Handlers {
			return handler.Handlers{Booking: b, Payment: p, Notification: n}
		},
	),
	fx.Invoke(handler.NewRouter),
)
