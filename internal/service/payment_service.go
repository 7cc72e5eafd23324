package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strconv"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/model"
    "github.com/iliyamo/hotel-booking/internal/queue"
    "github.com/iliyamo/hotel-booking/internal/repository"
    "github.com/iliyamo/hotel-booking/internal/vnpay"
)

// CallbackVerifier checks the gateway signature of callback parameters.
type CallbackVerifier interface {
    Verify(params map[string]string) bool
}

// ConfirmationPublisher enqueues booking confirmation jobs.
type ConfirmationPublisher interface {
    PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Outcome is the business result of a callback.
type Outcome string

const (
    OutcomeSuccess Outcome = "success"
    OutcomeFailed  Outcome = "failed"
    OutcomeError   Outcome = "error"
)

// Reason qualifies an OutcomeError.
type Reason string

const (
    ReasonNone             Reason = ""
    ReasonInvalidSignature Reason = "invalid_signature"
    ReasonMalformed        Reason = "malformed"
    ReasonNotFound         Reason = "invoice_not_found"
    ReasonAmountMismatch   Reason = "amount_mismatch"
    ReasonInternal         Reason = "internal"
)

// CallbackResult is what HandleCallback reports.  Invoice is set whenever
// the invoice could be resolved.  AlreadySettled is true when the invoice
// had left PENDING before this call and nothing was written.
type CallbackResult struct {
    Outcome        Outcome
    Reason         Reason
    Message        string
    TxnRef         string
    ResponseCode   string
    Invoice        *model.Invoice
    AlreadySettled bool
}

// PaymentService reconciles gateway callbacks against pending invoices.
type PaymentService struct {
    db             *sql.DB
    invoices       *repository.InvoiceRepo
    bookings       *repository.BookingRepo
    verifier       CallbackVerifier
    publisher      ConfirmationPublisher
    publishTimeout time.Duration
    log            *zap.Logger

    now func() time.Time
}

// NewPaymentService wires a PaymentService.  publishTimeout bounds each
// confirmation publish; zero means 3s.
func NewPaymentService(db *sql.DB, invoices *repository.InvoiceRepo, bookings *repository.BookingRepo,
    verifier CallbackVerifier, publisher ConfirmationPublisher, publishTimeout time.Duration, log *zap.Logger) *PaymentService {
    if db == nil || invoices == nil || bookings == nil || verifier == nil || publisher == nil || log == nil {
        panic("nil dependency passed to NewPaymentService")
    }
    if publishTimeout <= 0 {
        publishTimeout = 3 * time.Second
    }
    return &PaymentService{
        db:             db,
        invoices:       invoices,
        bookings:       bookings,
        verifier:       verifier,
        publisher:      publisher,
        publishTimeout: publishTimeout,
        log:            log,
        now:            time.Now,
    }
}

// HandleCallback verifies and applies one gateway callback.  It never
// returns an error: every failure is an OutcomeError with a Reason, so the
// transport can always answer the gateway.
//
// The signature is checked before anything touches the database.  The
// invoice row is then locked, and only a PENDING invoice is moved: to PAID
// on response code "00" (booking stays BOOKED, one confirmation job is
// published after commit), otherwise to CANCELED together with its
// booking.  A callback for an invoice that is already settled reports the
// recorded outcome and writes nothing.
func (s *PaymentService) HandleCallback(ctx context.Context, params map[string]string, lang string) CallbackResult {
    res := CallbackResult{
        TxnRef:       params[vnpay.ParamTxnRef],
        ResponseCode: params[vnpay.ParamResponseCode],
    }

    if !s.verifier.Verify(params) {
        s.log.Warn("payment callback: signature mismatch",
            zap.String("txn_ref", res.TxnRef), zap.String("response_code", res.ResponseCode))
        return res.fail(ReasonInvalidSignature, "invalid signature")
    }

    cb, err := vnpay.ParseCallback(params)
    if err != nil {
        s.log.Warn("payment callback: malformed", zap.String("txn_ref", res.TxnRef), zap.Error(err))
        return res.fail(ReasonMalformed, "malformed callback")
    }
    invoiceID, err := strconv.ParseUint(vnpay.TxnRefPrefix(cb.TxnRef), 10, 64)
    if err != nil || invoiceID == 0 {
        s.log.Warn("payment callback: unresolvable txn ref", zap.String("txn_ref", cb.TxnRef))
        return res.fail(ReasonNotFound, "invoice not found")
    }

    out, detail, err := s.apply(ctx, invoiceID, cb, &res)
    if err != nil {
        s.log.Error("payment callback: reconcile failed",
            zap.Uint64("invoice_id", invoiceID), zap.String("txn_ref", cb.TxnRef), zap.Error(err))
        return res.fail(ReasonInternal, "internal error")
    }
    if out.Outcome == OutcomeSuccess && !out.AlreadySettled && detail != nil {
        s.publishConfirmation(ctx, detail, lang)
    }
    return out
}

// apply runs the locked read-modify-write.  detail is returned only when
// this call moved the invoice to PAID.
func (s *PaymentService) apply(ctx context.Context, invoiceID uint64, cb vnpay.Callback, res *CallbackResult) (CallbackResult, *model.InvoiceDetail, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return *res, nil, fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    d, err := s.invoices.GetDetailForUpdateTx(ctx, tx, invoiceID)
    if errors.Is(err, repository.ErrInvoiceNotFound) {
        s.log.Warn("payment callback: invoice not found",
            zap.Uint64("invoice_id", invoiceID), zap.String("txn_ref", cb.TxnRef))
        return res.fail(ReasonNotFound, "invoice not found"), nil, nil
    }
    if err != nil {
        return *res, nil, fmt.Errorf("load invoice: %w", err)
    }
    if d.TxnRef == nil || *d.TxnRef != cb.TxnRef {
        s.log.Warn("payment callback: txn ref does not match invoice",
            zap.Uint64("invoice_id", invoiceID), zap.String("txn_ref", cb.TxnRef))
        return res.fail(ReasonNotFound, "invoice not found"), nil, nil
    }
    if cb.AmountCents != d.TotalAmountCents {
        s.log.Error("payment callback: amount mismatch",
            zap.Uint64("invoice_id", d.ID),
            zap.Int64("expected_cents", d.TotalAmountCents),
            zap.Int64("received_cents", cb.AmountCents))
        r := res.fail(ReasonAmountMismatch, "invalid amount")
        r.Invoice = &d.Invoice
        return r, nil, nil
    }

    res.Invoice = &d.Invoice
    target := model.InvoiceCanceled
    if cb.Succeeded() {
        target = model.InvoicePaid
    }
    if !d.Status.CanTransition(target) {
        res.AlreadySettled = true
        if d.Status == model.InvoicePaid {
            res.Outcome, res.Message = OutcomeSuccess, "payment already confirmed"
        } else {
            res.Outcome, res.Message = OutcomeFailed, "payment already canceled"
        }
        s.log.Info("payment callback: replay of settled invoice",
            zap.Uint64("invoice_id", d.ID), zap.String("status", string(d.Status)),
            zap.String("transaction_no", cb.TransactionNo))
        return *res, nil, nil
    }

    now := s.now().UTC()
    if target == model.InvoicePaid {
        moved, err := s.invoices.MarkPaidTx(ctx, tx, d.ID, now)
        if err != nil {
            return *res, nil, fmt.Errorf("mark paid: %w", err)
        }
        if err := s.bookings.UpdateStatusTx(ctx, tx, d.BookingID, model.BookingBooked); err != nil {
            return *res, nil, fmt.Errorf("update booking: %w", err)
        }
        if moved {
            if d.Rooms, err = s.bookings.RoomsTx(ctx, tx, d.BookingID); err != nil {
                return *res, nil, fmt.Errorf("load rooms: %w", err)
            }
            if d.Services, err = s.bookings.ServicesTx(ctx, tx, d.BookingID); err != nil {
                return *res, nil, fmt.Errorf("load services: %w", err)
            }
        }
        if err := tx.Commit(); err != nil {
            return *res, nil, fmt.Errorf("commit: %w", err)
        }
        committed = true

        d.Status, d.PaidDate = model.InvoicePaid, &now
        d.Booking.Status = model.BookingBooked
        res.Outcome, res.Message, res.AlreadySettled = OutcomeSuccess, "payment successful", !moved
        s.log.Info("payment callback: invoice paid",
            zap.Uint64("invoice_id", d.ID), zap.Uint64("booking_id", d.BookingID), zap.String("txn_ref", cb.TxnRef),
            zap.String("transaction_no", cb.TransactionNo), zap.String("bank_code", cb.BankCode))
        if !moved {
            return *res, nil, nil
        }
        return *res, d, nil
    }

    moved, err := s.invoices.MarkCanceledTx(ctx, tx, d.ID)
    if err != nil {
        return *res, nil, fmt.Errorf("mark canceled: %w", err)
    }
    if err := s.bookings.UpdateStatusTx(ctx, tx, d.BookingID, model.BookingCanceled); err != nil {
        return *res, nil, fmt.Errorf("update booking: %w", err)
    }
    if err := tx.Commit(); err != nil {
        return *res, nil, fmt.Errorf("commit: %w", err)
    }
    committed = true

    d.Status = model.InvoiceCanceled
    res.Outcome, res.Message, res.AlreadySettled = OutcomeFailed, "payment failed", !moved
    s.log.Info("payment callback: invoice canceled",
        zap.Uint64("invoice_id", d.ID), zap.String("response_code", cb.ResponseCode),
        zap.String("transaction_no", cb.TransactionNo), zap.String("bank_code", cb.BankCode))
    return *res, nil, nil
}

// publishConfirmation enqueues the confirmation job with a bounded
// timeout.  Failure is logged only; the committed state stands.
func (s *PaymentService) publishConfirmation(ctx context.Context, d *model.InvoiceDetail, lang string) {
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
    defer cancel()
    ev := queue.NewBookingConfirmedEvent(d, lang, s.now())
    if err := s.publisher.PublishBookingConfirmed(pctx, ev); err != nil {
        s.log.Warn("payment callback: confirmation not enqueued",
            zap.Uint64("invoice_id", d.ID), zap.String("event_id", ev.EventID), zap.Error(err))
        return
    }
    s.log.Info("payment callback: confirmation enqueued",
        zap.Uint64("invoice_id", d.ID), zap.String("event_id", ev.EventID))
}

func (r CallbackResult) fail(reason Reason, msg string) CallbackResult {
    r.Outcome, r.Reason, r.Message = OutcomeError, reason, msg
    return r
}
