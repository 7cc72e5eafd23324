package model

import "time"

// BookingStatus is the occupancy lifecycle of a booking.
type BookingStatus string

const (
    BookingCanceled   BookingStatus = "CANCELED"
    BookingBooked     BookingStatus = "BOOKED"
    BookingCheckedIn  BookingStatus = "CHECKED_IN"
    BookingCheckedOut BookingStatus = "CHECKED_OUT"
)

// ActiveBookingStatuses hold a room; any other status frees it.
var ActiveBookingStatuses = []BookingStatus{BookingBooked, BookingCheckedIn}

// Booking identifies a stay of one user in one or more rooms.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the booking.
//  StartTime   – check-in timestamp (UTC).
//  EndTime     – check-out timestamp (UTC), strictly after StartTime.
//  NumAdults   – number of adults, at least one.
//  NumChildren – number of children.
//  Status      – occupancy status.
type Booking struct {
    ID          uint64        `json:"id"`           // bookings.id
    UserID      uint64        `json:"user_id"`      // bookings.user_id
    StartTime   time.Time     `json:"start_time"`   // bookings.start_time
    EndTime     time.Time     `json:"end_time"`     // bookings.end_time
    NumAdults   int           `json:"num_adults"`   // bookings.num_adults
    NumChildren int           `json:"num_children"` // bookings.num_children
    Status      BookingStatus `json:"status"`       // bookings.status
    CreatedAt   time.Time     `json:"created_at"`   // bookings.created_at
}

// BookingRoom links a booking to a room with the nightly rate frozen at
// booking time.
type BookingRoom struct {
    ID                  uint64 `json:"id"`
    BookingID           uint64 `json:"booking_id"`
    RoomID              uint64 `json:"room_id"`
    RoomNumber          string `json:"room_number,omitempty"`
    PriceAtBookingCents int64  `json:"price_at_booking_cents"`
}

// BookingService links a booking to an add-on service with the unit
// price frozen at booking time.  Quantity is always positive.
type BookingService struct {
    ID                  uint64 `json:"id"`
    BookingID           uint64 `json:"booking_id"`
    ServiceID           uint64 `json:"service_id"`
    ServiceName         string `json:"service_name,omitempty"`
    Quantity            int    `json:"quantity"`
    PriceAtBookingCents int64  `json:"price_at_booking_cents"`
}
