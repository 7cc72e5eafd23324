package service

import (
    "context"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/repository"
)

const (
    staleBatch = 100

    defaultStaleTTL      = 30 * time.Minute
    defaultSweepInterval = 5 * time.Minute
)

// PendingInvoiceMonitor reports invoices stuck in PENDING longer than a
// TTL: bookings whose payment link was never produced, or whose callback
// never arrived.  It only logs; settling them is an operator decision.
type PendingInvoiceMonitor struct {
    invoices *repository.InvoiceRepo
    ttl      time.Duration
    interval time.Duration
    log      *zap.Logger
    now      func() time.Time
}

// NewPendingInvoiceMonitor returns a monitor that runs every interval.
// Non-positive ttl or interval fall back to 30m and 5m.
func NewPendingInvoiceMonitor(invoices *repository.InvoiceRepo, ttl, interval time.Duration, log *zap.Logger) *PendingInvoiceMonitor {
    if ttl <= 0 {
        ttl = defaultStaleTTL
    }
    if interval <= 0 {
        interval = defaultSweepInterval
    }
    return &PendingInvoiceMonitor{invoices: invoices, ttl: ttl, interval: interval, log: log, now: time.Now}
}

// Sweep logs every stale invoice and returns how many were found.
func (m *PendingInvoiceMonitor) Sweep(ctx context.Context) (int, error) {
    cutoff := m.now().UTC().Add(-m.ttl)
    stale, err := m.invoices.ListStalePending(ctx, cutoff, staleBatch)
    if err != nil {
        return 0, err
    }
    for _, inv := range stale {
        txnRef := ""
        if inv.TxnRef != nil {
            txnRef = *inv.TxnRef
        }
        m.log.Warn("invoice pending past ttl",
            zap.Uint64("invoice_id", inv.ID),
            zap.Uint64("booking_id", inv.BookingID),
            zap.String("invoice_code", inv.InvoiceCode),
            zap.String("txn_ref", txnRef),
            zap.Time("issued_date", inv.IssuedDate))
    }
    if len(stale) > 0 {
        m.log.Warn("stale pending invoices", zap.Int("count", len(stale)), zap.Duration("ttl", m.ttl))
    }
    return len(stale), nil
}

// Run sweeps once immediately and then on every tick until ctx ends.
func (m *PendingInvoiceMonitor) Run(ctx context.Context) {
    t := time.NewTicker(m.interval)
    defer t.Stop()
    for {
        if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
            m.log.Error("stale invoice sweep failed", zap.Error(err))
        }
        select {
        case <-ctx.Done():
            return
        case <-t.C:
        }
    }
}
