package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/model"
    "github.com/iliyamo/hotel-booking/internal/service"
)

// BookingCreator is the booking transaction manager as seen by HTTP.
type BookingCreator interface {
    CreateBooking(ctx context.Context, in service.CreateBookingInput) (*service.CreateBookingResult, error)
}

// BookingHandler serves POST /v1/bookings.
type BookingHandler struct {
    svc BookingCreator
    log *zap.Logger
}

// NewBookingHandler panics on nil dependencies.
func NewBookingHandler(svc BookingCreator, log *zap.Logger) *BookingHandler {
    if svc == nil || log == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{svc: svc, log: log}
}

// CreateBookingRequest is the JSON body of a booking.  Only the shape is
// checked here; ids, quantities and the payment method are left to the
// service, which reports the first failure in its fixed order.
// paymentMethod is 0 (cash), 1 (bank transfer) or 2 (card, the default).
type CreateBookingRequest struct {
    RoomIDs       []uint64 `json:"roomIds"`
    StartTime     string   `json:"startTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
    EndTime       string   `json:"endTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
    NumAdults     int      `json:"numAdults" validate:"min=1"`
    NumChildren   int      `json:"numChildren" validate:"min=0"`
    ServiceIDs    []uint64 `json:"serviceIds"`
    Quantities    []int    `json:"quantities"`
    PaymentMethod *int     `json:"paymentMethod"`
}

// CreateBooking handles POST /v1/bookings.  On success it answers 201 with
// the payment URL the client must redirect to.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, envelope{Status: "error", Message: "unauthorized", Code: "UNAUTHORIZED"})
    }

    var req CreateBookingRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: "invalid request body", Code: "VALIDATION_FAILED"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, envelope{
            Status: "error", Message: "validation failed", Code: "VALIDATION_FAILED", Data: fieldErrors(err),
        })
    }
    // Validated above.
    start, _ := time.Parse(time.RFC3339, req.StartTime)
    end, _ := time.Parse(time.RFC3339, req.EndTime)

    method := model.PaymentCard
    if req.PaymentMethod != nil {
        method = model.PaymentMethod(*req.PaymentMethod)
    }

    res, err := h.svc.CreateBooking(c.Request().Context(), service.CreateBookingInput{
        UserID:        userID,
        RoomIDs:       req.RoomIDs,
        StartTime:     start,
        EndTime:       end,
        NumAdults:     req.NumAdults,
        NumChildren:   req.NumChildren,
        ServiceIDs:    req.ServiceIDs,
        Quantities:    req.Quantities,
        PaymentMethod: method,
        ClientIP:      clientIP(c),
    })
    if err != nil {
        var be *service.BookingError
        if errors.As(err, &be) {
            return c.JSON(be.Status, envelope{Status: "error", Message: be.Message, Code: be.Code})
        }
        h.log.Error("create booking failed", zap.Uint64("user_id", userID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, envelope{Status: "error", Message: "internal error"})
    }

    return c.JSON(http.StatusCreated, envelope{
        Status:  "success",
        Message: "booking created, redirect to payment",
        Data:    echo.Map{"paymentUrl": res.PaymentURL},
    })
}
