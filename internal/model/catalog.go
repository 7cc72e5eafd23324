package model

// Room is a bookable room.  PriceCents is the live nightly rate; it is
// copied into BookingRoom.PriceAtBookingCents when a booking is created
// and never read back for that booking again.
type Room struct {
    ID         uint64 `json:"id"`          // rooms.id
    RoomNumber string `json:"room_number"` // rooms.room_number
    PriceCents int64  `json:"price_cents"` // rooms.price_cents
}

// Service is an add-on (breakfast, airport pickup, ...) sold per unit.
type Service struct {
    ID         uint64 `json:"id"`          // services.id
    Name       string `json:"name"`        // services.name
    PriceCents int64  `json:"price_cents"` // services.price_cents
}
