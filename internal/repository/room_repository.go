package repository

import (
    "context"
    "database/sql"
    "slices"

    "github.com/iliyamo/hotel-booking/internal/model"
)

// RoomRepo reads the rooms catalog.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to db.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// LockByIDsTx reads the given rooms with an exclusive row lock.  Rows are
// locked in ascending id order so that two transactions requesting
// overlapping room sets cannot deadlock.  Every booking transaction calls
// this before checking availability, which serialises concurrent bookings
// of the same room.  Duplicate ids are ignored; ErrRoomNotFound is
// returned if any id does not exist.
func (r *RoomRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Room, error) {
    ids = Distinct(ids)
    if len(ids) == 0 {
        return nil, ErrRoomNotFound
    }
    in, args := inClause(ids)
    q := `SELECT id, room_number, price_cents FROM rooms WHERE id IN (` + in + `) ORDER BY id FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Room, 0, len(ids))
    for rows.Next() {
        var rm model.Room
        if err := rows.Scan(&rm.ID, &rm.RoomNumber, &rm.PriceCents); err != nil {
            return nil, err
        }
        out = append(out, rm)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) != len(ids) {
        return nil, ErrRoomNotFound
    }
    return out, nil
}

// Distinct drops repeated ids and sorts the rest ascending.
func Distinct(ids []uint64) []uint64 {
    seen := make(map[uint64]struct{}, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    slices.Sort(out)
    return out
}
