// Package queue carries booking confirmation jobs over RabbitMQ: the
// event payload, the publisher used by the payment reconciler and the
// background consumer that turns events into customer notifications.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/hotel-booking/internal/model"
)

// ConfirmationQueue is the durable queue confirmation jobs travel on.
const ConfirmationQueue = "booking.confirmation"

// RoomLine is one booked room as shown to the customer.
type RoomLine struct {
    RoomNumber          string `json:"room_number"`
    PriceAtBookingCents int64  `json:"price_at_booking_cents"`
}

// ServiceLine is one booked add-on as shown to the customer.
type ServiceLine struct {
    Name                string `json:"name"`
    Quantity            int    `json:"quantity"`
    PriceAtBookingCents int64  `json:"price_at_booking_cents"`
}

// BookingConfirmedEvent is published once per invoice, when it moves from
// PENDING to PAID.  It is a self-contained snapshot: the consumer never
// reads the primary database.  EventID is what consumers dedup on since
// delivery is at-least-once.
type BookingConfirmedEvent struct {
    EventID          string        `json:"event_id"`
    Lang             string        `json:"lang"`
    UserID           uint64        `json:"user_id"`
    UserName         string        `json:"user_name"`
    UserEmail        string        `json:"user_email"`
    BookingID        uint64        `json:"booking_id"`
    InvoiceID        uint64        `json:"invoice_id"`
    InvoiceCode      string        `json:"invoice_code"`
    PaymentMethod    string        `json:"payment_method"`
    SubtotalCents    int64         `json:"subtotal_cents"`
    TotalAmountCents int64         `json:"total_amount_cents"`
    StartTime        string        `json:"start_time"`
    EndTime          string        `json:"end_time"`
    NumAdults        int           `json:"num_adults"`
    NumChildren      int           `json:"num_children"`
    IssuedDate       string        `json:"issued_date"`
    PaidDate         string        `json:"paid_date"`
    Rooms            []RoomLine    `json:"rooms"`
    Services         []ServiceLine `json:"services"`
    ConfirmedAt      string        `json:"confirmed_at"`
}

// NewBookingConfirmedEvent snapshots d into an event with a fresh id.
// Timestamps are RFC3339 in UTC.
func NewBookingConfirmedEvent(d *model.InvoiceDetail, lang string, at time.Time) BookingConfirmedEvent {
    ev := BookingConfirmedEvent{
        EventID:          uuid.NewString(),
        Lang:             lang,
        UserID:           d.User.ID,
        UserName:         d.User.Name,
        UserEmail:        d.User.Email,
        BookingID:        d.BookingID,
        InvoiceID:        d.ID,
        InvoiceCode:      d.InvoiceCode,
        PaymentMethod:    d.PaymentMethod.String(),
        SubtotalCents:    d.SubtotalCents,
        TotalAmountCents: d.TotalAmountCents,
        StartTime:        d.Booking.StartTime.UTC().Format(time.RFC3339),
        EndTime:          d.Booking.EndTime.UTC().Format(time.RFC3339),
        NumAdults:        d.Booking.NumAdults,
        NumChildren:      d.Booking.NumChildren,
        IssuedDate:       d.IssuedDate.UTC().Format(time.RFC3339),
        Rooms:            make([]RoomLine, 0, len(d.Rooms)),
        Services:         make([]ServiceLine, 0, len(d.Services)),
        ConfirmedAt:      at.UTC().Format(time.RFC3339),
    }
    if d.PaidDate != nil {
        ev.PaidDate = d.PaidDate.UTC().Format(time.RFC3339)
    }
    for _, r := range d.Rooms {
        ev.Rooms = append(ev.Rooms, RoomLine{RoomNumber: r.RoomNumber, PriceAtBookingCents: r.PriceAtBookingCents})
    }
    for _, s := range d.Services {
        ev.Services = append(ev.Services, ServiceLine{Name: s.ServiceName, Quantity: s.Quantity, PriceAtBookingCents: s.PriceAtBookingCents})
    }
    return ev
}
