package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/hotel-booking/internal/model"
)

// BookingRepo persists bookings and their room and service lines.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CountConflictsTx counts bookings in model.ActiveBookingStatuses that hold
// any of roomIDs over an interval touching [start, end].  The overlap
// test is inclusive on both ends: existing.start <= end AND
// existing.end >= start.  Callers must already hold the room locks from
// RoomRepo.LockByIDsTx in the same transaction.
func (r *BookingRepo) CountConflictsTx(ctx context.Context, tx *sql.Tx, roomIDs []uint64, start, end time.Time) (int, error) {
    if len(roomIDs) == 0 {
        return 0, nil
    }
    in, args := inClause(roomIDs)
    statuses := make([]string, len(model.ActiveBookingStatuses))
    for i, st := range model.ActiveBookingStatuses {
        statuses[i] = "?"
        args = append(args, string(st))
    }
    q := `SELECT COUNT(DISTINCT b.id)
          FROM bookings b
          JOIN booking_rooms br ON br.booking_id = b.id
          WHERE br.room_id IN (` + in + `)
            AND b.status IN (` + strings.Join(statuses, ",") + `)
            AND b.start_time <= ?
            AND b.end_time >= ?`
    args = append(args, end.UTC(), start.UTC())
    var n int
    if err := tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// CreateTx inserts b and sets its generated ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, start_time, end_time, num_adults, num_children, status) VALUES (?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, b.UserID, b.StartTime.UTC(), b.EndTime.UTC(), b.NumAdults, b.NumChildren, string(b.Status))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// CreateRoomsBulkTx inserts all room lines in one statement.  An empty
// slice is a no-op.
func (r *BookingRepo) CreateRoomsBulkTx(ctx context.Context, tx *sql.Tx, lines []model.BookingRoom) error {
    if len(lines) == 0 {
        return nil
    }
    query := `INSERT INTO booking_rooms (booking_id, room_id, price_at_booking_cents) VALUES `
    args := make([]interface{}, 0, len(lines)*3)
    for i, l := range lines {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, l.BookingID, l.RoomID, l.PriceAtBookingCents)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    return nil
}

// CreateServicesBulkTx inserts all service lines in one statement.  An
// empty slice is a no-op.
func (r *BookingRepo) CreateServicesBulkTx(ctx context.Context, tx *sql.Tx, lines []model.BookingService) error {
    if len(lines) == 0 {
        return nil
    }
    query := `INSERT INTO booking_services (booking_id, service_id, quantity, price_at_booking_cents) VALUES `
    args := make([]interface{}, 0, len(lines)*4)
    for i, l := range lines {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, l.BookingID, l.ServiceID, l.Quantity, l.PriceAtBookingCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// UpdateStatusTx sets the booking status.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error {
    _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
    return err
}

// RoomsTx lists the room lines of a booking with their room numbers.
func (r *BookingRepo) RoomsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.BookingRoom, error) {
    const q = `SELECT br.id, br.booking_id, br.room_id, rm.room_number, br.price_at_booking_cents
               FROM booking_rooms br
               JOIN rooms rm ON rm.id = br.room_id
               WHERE br.booking_id = ?
               ORDER BY br.room_id`
    rows, err := tx.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.BookingRoom
    for rows.Next() {
        var l model.BookingRoom
        if err := rows.Scan(&l.ID, &l.BookingID, &l.RoomID, &l.RoomNumber, &l.PriceAtBookingCents); err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

// ServicesTx lists the service lines of a booking with their names.
func (r *BookingRepo) ServicesTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.BookingService, error) {
    const q = `SELECT bs.id, bs.booking_id, bs.service_id, s.name, bs.quantity, bs.price_at_booking_cents
               FROM booking_services bs
               JOIN services s ON s.id = bs.service_id
               WHERE bs.booking_id = ?
               ORDER BY bs.id`
    rows, err := tx.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.BookingService
    for rows.Next() {
        var l model.BookingService
        if err := rows.Scan(&l.ID, &l.BookingID, &l.ServiceID, &l.ServiceName, &l.Quantity, &l.PriceAtBookingCents); err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    return out, rows.Err()
}
