package service

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "go.uber.org/zap/zaptest/observer"

    "github.com/iliyamo/hotel-booking/internal/repository"
)

func TestPendingInvoiceMonitor_SweepLogsStaleInvoices(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    core, logs := observer.New(zapcore.WarnLevel)
    m := NewPendingInvoiceMonitor(repository.NewInvoiceRepo(db), 30*time.Minute, time.Minute, zap.New(core))
    m.now = func() time.Time { return testNow }

    mock.ExpectQuery(`WHERE status = 'PENDING' AND issued_date < \?`).
        WithArgs(testNow.Add(-30*time.Minute), 100).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "booking_id", "invoice_code", "subtotal_cents", "total_amount_cents", "payment_method", "status", "txn_ref", "issued_date",
        }).
            AddRow(9, 42, "INV-1-42", 140000, 140000, "CARD", "PENDING", "9-deadbeef", testNow.Add(-time.Hour)).
            AddRow(10, 43, "INV-2-43", 50000, 50000, "CASH", "PENDING", nil, testNow.Add(-2*time.Hour)))

    n, err := m.Sweep(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 2, n)
    assert.Equal(t, 2, logs.FilterMessage("invoice pending past ttl").Len())
    assert.Equal(t, 1, logs.FilterMessage("stale pending invoices").Len())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingInvoiceMonitor_RunStopsOnCancel(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    mock.MatchExpectationsInOrder(false)
    mock.ExpectQuery(`FROM invoices`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

    m := NewPendingInvoiceMonitor(repository.NewInvoiceRepo(db), time.Minute, time.Hour, zap.NewNop())
    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() { m.Run(ctx); close(done) }()
    cancel()

    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("monitor did not stop")
    }
}

func TestNewPendingInvoiceMonitor_NonPositiveSettingsFallBack(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    m := NewPendingInvoiceMonitor(repository.NewInvoiceRepo(db), -time.Minute, 0, zap.NewNop())
    assert.Equal(t, 30*time.Minute, m.ttl)
    assert.Equal(t, 5*time.Minute, m.interval)

    // Run must not panic on a zero interval.
    mock.MatchExpectationsInOrder(false)
    mock.ExpectQuery(`FROM invoices`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() { m.Run(ctx); close(done) }()
    cancel()

    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("monitor did not stop")
    }
}
