// Package service holds the booking transaction manager, the payment
// callback reconciler and the stale invoice monitor.
package service

import "net/http"

// BookingError is a caller-visible failure of CreateBooking.  Code is the
// stable machine-readable identifier; Status is the HTTP status the
// handler answers with.
type BookingError struct {
    Code    string
    Status  int
    Message string
}

func (e *BookingError) Error() string { return e.Code + ": " + e.Message }

var (
    ErrRoomRequired          = &BookingError{"ROOM_REQUIRED", http.StatusBadRequest, "at least one room is required"}
    ErrStartTimePast         = &BookingError{"START_TIME_PAST", http.StatusBadRequest, "start time must be in the future"}
    ErrRoomNotFound          = &BookingError{"ROOM_NOT_FOUND", http.StatusNotFound, "room not found"}
    ErrServiceNotFound       = &BookingError{"SERVICE_NOT_FOUND", http.StatusNotFound, "service not found"}
    ErrRoomNotAvailable      = &BookingError{"ROOM_NOT_AVAILABLE", http.StatusConflict, "room is not available for the selected time"}
    ErrInvalidTime           = &BookingError{"INVALID_TIME", http.StatusBadRequest, "end time must be after start time"}
    ErrQuantityMismatch      = &BookingError{"QUANTITY_MISMATCH", http.StatusBadRequest, "services and quantities must have the same length"}
    ErrInvalidQuantity       = &BookingError{"INVALID_QUANTITY", http.StatusBadRequest, "quantities must be positive"}
    ErrInvalidPaymentMethod  = &BookingError{"INVALID_PAYMENT_METHOD", http.StatusBadRequest, "unknown payment method"}
    ErrBookingConflict       = &BookingError{"BOOKING_CONFLICT", http.StatusConflict, "booking conflicts with existing data"}
    ErrPaymentURLUnavailable = &BookingError{"PAYMENT_URL_UNAVAILABLE", http.StatusBadGateway, "payment link could not be created, please retry later"}
)
