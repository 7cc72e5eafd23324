package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/hotel-booking/internal/model"
)

// InvoiceRepo persists invoices.  Status changes go through MarkPaidTx and
// MarkCanceledTx, which only ever move an invoice out of PENDING.
type InvoiceRepo struct {
    db *sql.DB
}

// NewInvoiceRepo returns an InvoiceRepo bound to db.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// CreateTx inserts inv and sets its generated ID.  A duplicate booking_id
// or invoice_code yields ErrConflict.
func (r *InvoiceRepo) CreateTx(ctx context.Context, tx *sql.Tx, inv *model.Invoice) error {
    const q = `INSERT INTO invoices (booking_id, invoice_code, subtotal_cents, total_amount_cents, payment_method, status, issued_date)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        inv.BookingID, inv.InvoiceCode, inv.SubtotalCents, inv.TotalAmountCents,
        inv.PaymentMethod.String(), string(inv.Status), inv.IssuedDate.UTC())
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    inv.ID = uint64(id)
    return nil
}

// SetTxnRefTx records the gateway transaction reference of the current
// payment attempt.
func (r *InvoiceRepo) SetTxnRefTx(ctx context.Context, tx *sql.Tx, id uint64, txnRef string) error {
    if _, err := tx.ExecContext(ctx, `UPDATE invoices SET txn_ref = ? WHERE id = ?`, txnRef, id); err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    return nil
}

const invoiceDetailSelect = `SELECT i.id, i.booking_id, i.invoice_code, i.subtotal_cents, i.total_amount_cents,
       i.payment_method, i.status, i.txn_ref, i.issued_date, i.paid_date,
       b.id, b.user_id, b.start_time, b.end_time, b.num_adults, b.num_children, b.status, b.created_at,
       u.id, u.name, u.email
FROM invoices i
JOIN bookings b ON b.id = i.booking_id
JOIN users u ON u.id = b.user_id
WHERE i.id = ?`

// GetDetailForUpdateTx loads an invoice with its booking and the booking's
// owner, locking the invoice and booking rows until the transaction ends.
// This lock is what serialises concurrent callbacks for one invoice.
// Line items are not loaded; see BookingRepo.RoomsTx and ServicesTx.
func (r *InvoiceRepo) GetDetailForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.InvoiceDetail, error) {
    var (
        d       model.InvoiceDetail
        method  string
        status  string
        bstatus string
        txnRef  sql.NullString
        paid    sql.NullTime
    )
    err := tx.QueryRowContext(ctx, invoiceDetailSelect+` FOR UPDATE`, id).Scan(
        &d.ID, &d.BookingID, &d.InvoiceCode, &d.SubtotalCents, &d.TotalAmountCents,
        &method, &status, &txnRef, &d.IssuedDate, &paid,
        &d.Booking.ID, &d.Booking.UserID, &d.Booking.StartTime, &d.Booking.EndTime,
        &d.Booking.NumAdults, &d.Booking.NumChildren, &bstatus, &d.Booking.CreatedAt,
        &d.User.ID, &d.User.Name, &d.User.Email,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrInvoiceNotFound
    }
    if err != nil {
        return nil, err
    }
    pm, err := model.ParsePaymentMethod(method)
    if err != nil {
        return nil, err
    }
    d.PaymentMethod = pm
    d.Status = model.InvoiceStatus(status)
    d.Booking.Status = model.BookingStatus(bstatus)
    if txnRef.Valid {
        ref := txnRef.String
        d.TxnRef = &ref
    }
    if paid.Valid {
        t := paid.Time
        d.PaidDate = &t
    }
    return &d, nil
}

// MarkPaidTx moves a PENDING invoice to PAID and stamps paid_date.  It
// reports whether this call performed the transition; false means the
// invoice was already settled.
func (r *InvoiceRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64, paidAt time.Time) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE invoices SET status = 'PAID', paid_date = ? WHERE id = ? AND status = 'PENDING'`,
        paidAt.UTC(), id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// MarkCanceledTx moves a PENDING invoice to CANCELED.  It reports whether
// this call performed the transition.
func (r *InvoiceRepo) MarkCanceledTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE invoices SET status = 'CANCELED' WHERE id = ? AND status = 'PENDING'`, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// ListStalePending returns up to limit PENDING invoices issued before
// cutoff, oldest first.
func (r *InvoiceRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Invoice, error) {
    const q = `SELECT id, booking_id, invoice_code, subtotal_cents, total_amount_cents, payment_method, status, txn_ref, issued_date
               FROM invoices
               WHERE status = 'PENDING' AND issued_date < ?
               ORDER BY issued_date
               LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, cutoff.UTC(), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Invoice
    for rows.Next() {
        var (
            inv    model.Invoice
            method string
            status string
            txnRef sql.NullString
        )
        if err := rows.Scan(&inv.ID, &inv.BookingID, &inv.InvoiceCode, &inv.SubtotalCents, &inv.TotalAmountCents,
            &method, &status, &txnRef, &inv.IssuedDate); err != nil {
            return nil, err
        }
        if inv.PaymentMethod, err = model.ParsePaymentMethod(method); err != nil {
            return nil, err
        }
        inv.Status = model.InvoiceStatus(status)
        if txnRef.Valid {
            ref := txnRef.String
            inv.TxnRef = &ref
        }
        out = append(out, inv)
    }
    return out, rows.Err()
}
