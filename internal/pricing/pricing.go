// Package pricing computes the amount billed for a stay.  All amounts are
// integer minor units (two fractional digits); nothing here touches
// floating point.
package pricing

import (
	"errors"
	"time"
)

const day = 24 * time.Hour

// ErrQuantityMismatch is returned when service ids and quantities are not
// positionally aligned.
var ErrQuantityMismatch = errors.New("pricing: services and quantities differ in length")

// RoomRate is the nightly rate of one selected room.
type RoomRate struct {
	RoomID     uint64
	PriceCents int64
}

// ServiceLine is one selected add-on with its unit price and quantity.
type ServiceLine struct {
	ServiceID  uint64
	PriceCents int64
	Quantity   int
}

// Quote is the result of Compute.
type Quote struct {
	Nights            int64
	RoomTotalCents    int64
	ServiceTotalCents int64
	TotalCents        int64
}

// Nights bills every started 24 hour block as a full night: 10h is one
// night, 25h two, 48h exactly two.  Non-positive durations return 0.
func Nights(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	n := int64(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

// Compute prices rooms for the given number of nights and adds every
// service line at unit price times quantity.
func Compute(rooms []RoomRate, nights int64, services []ServiceLine) Quote {
	q := Quote{Nights: nights}
	for _, r := range rooms {
		q.RoomTotalCents += r.PriceCents * nights
	}
	for _, s := range services {
		q.ServiceTotalCents += s.PriceCents * int64(s.Quantity)
	}
	q.TotalCents = q.RoomTotalCents + q.ServiceTotalCents
	return q
}

// Lines pairs services with quantities by position.  The two slices must
// have the same length.
func Lines(services []ServiceLine, quantities []int) ([]ServiceLine, error) {
	if len(services) != len(quantities) {
		return nil, ErrQuantityMismatch
	}
	out := make([]ServiceLine, len(services))
	for i, s := range services {
		s.Quantity = quantities[i]
		out[i] = s
	}
	return out, nil
}
