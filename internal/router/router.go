package router // package router registers the HTTP routes of the booking service

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterBooking registers POST /v1/bookings behind JWT authentication.
// Customers book for themselves; staff and admins may book too.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin, model.RoleStaff),
		limiter,
	)
	g.POST("", h.CreateBooking)
}

// RegisterPayment registers the gateway callbacks.  They carry no token;
// authenticity comes from the signature checked by the reconciler.  Only
// the browser return is limited; the IPN must always get an answer.
func RegisterPayment(e *echo.Echo, h *handler.PaymentHandler, returnLimiter echo.MiddlewareFunc) {
	e.GET("/v1/bookings/vnpay_return", h.VNPayReturn, returnLimiter)
	e.GET("/v1/payments/vnpay/ipn", h.VNPayIPN)
}
