package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/hotel-booking/internal/model"
)

// ServiceRepo reads the add-on services catalog.
type ServiceRepo struct {
    db *sql.DB
}

// NewServiceRepo returns a ServiceRepo bound to db.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// GetByIDsTx loads the given services keyed by id.  The unit prices read
// here are the ones frozen into booking_services.  ErrServiceNotFound is
// returned if any distinct id does not exist.
func (r *ServiceRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) (map[uint64]model.Service, error) {
    ids = Distinct(ids)
    if len(ids) == 0 {
        return map[uint64]model.Service{}, nil
    }
    in, args := inClause(ids)
    rows, err := tx.QueryContext(ctx,
        `SELECT id, name, price_cents FROM services WHERE id IN (`+in+`) ORDER BY id`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]model.Service, len(ids))
    for rows.Next() {
        var s model.Service
        if err := rows.Scan(&s.ID, &s.Name, &s.PriceCents); err != nil {
            return nil, err
        }
        out[s.ID] = s
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) != len(ids) {
        return nil, ErrServiceNotFound
    }
    return out, nil
}
