package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/model"
    "github.com/iliyamo/hotel-booking/internal/pricing"
    "github.com/iliyamo/hotel-booking/internal/repository"
    "github.com/iliyamo/hotel-booking/internal/utils"
    "github.com/iliyamo/hotel-booking/internal/vnpay"
)

// PaymentURLBuilder produces the gateway redirect for a pending invoice.
type PaymentURLBuilder interface {
    BuildPaymentURL(ipAddr string, amountCents int64, orderInfo, txnRef string) (string, error)
}

// CreateBookingInput is an authenticated booking request.  Times are
// absolute instants; ServiceIDs and Quantities are matched by position.
type CreateBookingInput struct {
    UserID        uint64
    RoomIDs       []uint64
    StartTime     time.Time
    EndTime       time.Time
    NumAdults     int
    NumChildren   int
    ServiceIDs    []uint64
    Quantities    []int
    PaymentMethod model.PaymentMethod
    ClientIP      string
}

// CreateBookingResult describes what was persisted and where to pay.
type CreateBookingResult struct {
    BookingID        uint64
    InvoiceID        uint64
    InvoiceCode      string
    TxnRef           string
    TotalAmountCents int64
    PaymentURL       string
}

// BookingService creates bookings together with their pending invoice.
type BookingService struct {
    db       *sql.DB
    rooms    *repository.RoomRepo
    services *repository.ServiceRepo
    bookings *repository.BookingRepo
    invoices *repository.InvoiceRepo
    gateway  PaymentURLBuilder
    log      *zap.Logger

    now       func() time.Time
    txnSuffix func() (string, error)
}

// NewBookingService wires a BookingService.  All dependencies must be
// non-nil.
func NewBookingService(db *sql.DB, rooms *repository.RoomRepo, services *repository.ServiceRepo,
    bookings *repository.BookingRepo, invoices *repository.InvoiceRepo, gateway PaymentURLBuilder, log *zap.Logger) *BookingService {
    if db == nil || rooms == nil || services == nil || bookings == nil || invoices == nil || gateway == nil || log == nil {
        panic("nil dependency passed to NewBookingService")
    }
    return &BookingService{
        db:        db,
        rooms:     rooms,
        services:  services,
        bookings:  bookings,
        invoices:  invoices,
        gateway:   gateway,
        log:       log,
        now:       time.Now,
        txnSuffix: func() (string, error) { return utils.RandomHex(4) },
    }
}

// CreateBooking validates the request, then in one transaction locks the
// rooms, checks availability, and inserts the booking, its lines and a
// PENDING invoice.  The payment URL is requested only after commit; if
// that fails the booking stays PENDING and ErrPaymentURLUnavailable is
// returned.
//
// Checks run in a fixed order and the first failure wins: ROOM_REQUIRED,
// START_TIME_PAST, ROOM_NOT_FOUND, SERVICE_NOT_FOUND, ROOM_NOT_AVAILABLE,
// INVALID_TIME, QUANTITY_MISMATCH.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
    if len(in.RoomIDs) == 0 {
        return nil, ErrRoomRequired
    }
    now := s.now().UTC()
    if !in.StartTime.After(now) {
        return nil, ErrStartTimePast
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Row locks on the rooms serialise every booking that touches them,
    // so the availability count below cannot race another insert.
    rooms, err := s.rooms.LockByIDsTx(ctx, tx, in.RoomIDs)
    if errors.Is(err, repository.ErrRoomNotFound) {
        return nil, ErrRoomNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("lock rooms: %w", err)
    }

    catalog, err := s.services.GetByIDsTx(ctx, tx, in.ServiceIDs)
    if errors.Is(err, repository.ErrServiceNotFound) {
        return nil, ErrServiceNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("load services: %w", err)
    }

    roomIDs := make([]uint64, len(rooms))
    for i, r := range rooms {
        roomIDs[i] = r.ID
    }
    conflicts, err := s.bookings.CountConflictsTx(ctx, tx, roomIDs, in.StartTime, in.EndTime)
    if err != nil {
        return nil, fmt.Errorf("check availability: %w", err)
    }
    if conflicts > 0 {
        return nil, ErrRoomNotAvailable
    }

    if !in.EndTime.After(in.StartTime) {
        return nil, ErrInvalidTime
    }

    var lines []pricing.ServiceLine
    if len(in.ServiceIDs) > 0 {
        priced := make([]pricing.ServiceLine, len(in.ServiceIDs))
        for i, id := range in.ServiceIDs {
            priced[i] = pricing.ServiceLine{ServiceID: id, PriceCents: catalog[id].PriceCents}
        }
        if lines, err = pricing.Lines(priced, in.Quantities); err != nil {
            return nil, ErrQuantityMismatch
        }
        for _, l := range lines {
            if l.Quantity <= 0 {
                return nil, ErrInvalidQuantity
            }
        }
    }
    if !in.PaymentMethod.Valid() {
        return nil, ErrInvalidPaymentMethod
    }

    rates := make([]pricing.RoomRate, len(rooms))
    for i, r := range rooms {
        rates[i] = pricing.RoomRate{RoomID: r.ID, PriceCents: r.PriceCents}
    }
    quote := pricing.Compute(rates, pricing.Nights(in.StartTime, in.EndTime), lines)

    booking := &model.Booking{
        UserID:      in.UserID,
        StartTime:   in.StartTime,
        EndTime:     in.EndTime,
        NumAdults:   in.NumAdults,
        NumChildren: in.NumChildren,
        Status:      model.BookingBooked,
    }
    if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
        return nil, fmt.Errorf("insert booking: %w", err)
    }

    roomLines := make([]model.BookingRoom, len(rooms))
    for i, r := range rooms {
        roomLines[i] = model.BookingRoom{BookingID: booking.ID, RoomID: r.ID, PriceAtBookingCents: r.PriceCents}
    }
    if err := s.bookings.CreateRoomsBulkTx(ctx, tx, roomLines); err != nil {
        return nil, s.persistErr("insert booking rooms", err)
    }

    serviceLines := make([]model.BookingService, len(lines))
    for i, l := range lines {
        serviceLines[i] = model.BookingService{
            BookingID:           booking.ID,
            ServiceID:           l.ServiceID,
            Quantity:            l.Quantity,
            PriceAtBookingCents: l.PriceCents,
        }
    }
    if err := s.bookings.CreateServicesBulkTx(ctx, tx, serviceLines); err != nil {
        return nil, fmt.Errorf("insert booking services: %w", err)
    }

    inv := &model.Invoice{
        BookingID:        booking.ID,
        InvoiceCode:      InvoiceCode(now, booking.ID),
        SubtotalCents:    quote.TotalCents,
        TotalAmountCents: quote.TotalCents,
        PaymentMethod:    in.PaymentMethod,
        Status:           model.InvoicePending,
        IssuedDate:       now,
    }
    if err := s.invoices.CreateTx(ctx, tx, inv); err != nil {
        return nil, s.persistErr("insert invoice", err)
    }

    suffix, err := s.txnSuffix()
    if err != nil {
        return nil, fmt.Errorf("txn ref: %w", err)
    }
    txnRef := fmt.Sprintf("%d-%s", inv.ID, suffix)
    if err := s.invoices.SetTxnRefTx(ctx, tx, inv.ID, txnRef); err != nil {
        return nil, s.persistErr("set txn ref", err)
    }

    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("commit: %w", err)
    }
    committed = true

    res := &CreateBookingResult{
        BookingID:        booking.ID,
        InvoiceID:        inv.ID,
        InvoiceCode:      inv.InvoiceCode,
        TxnRef:           txnRef,
        TotalAmountCents: inv.TotalAmountCents,
    }
    s.log.Info("booking created",
        zap.Uint64("booking_id", booking.ID),
        zap.Uint64("invoice_id", inv.ID),
        zap.String("txn_ref", txnRef),
        zap.Int64("total_amount_cents", inv.TotalAmountCents),
        zap.Int64("nights", quote.Nights))

    orderInfo := vnpay.OrderInfo("Payment for invoice " + inv.InvoiceCode)
    url, err := s.gateway.BuildPaymentURL(in.ClientIP, inv.TotalAmountCents, orderInfo, txnRef)
    if err != nil {
        s.log.Error("payment url generation failed, invoice left pending",
            zap.Uint64("invoice_id", inv.ID), zap.String("txn_ref", txnRef), zap.Error(err))
        return nil, fmt.Errorf("%w: %v", ErrPaymentURLUnavailable, err)
    }
    res.PaymentURL = url
    return res, nil
}

func (s *BookingService) persistErr(op string, err error) error {
    if errors.Is(err, repository.ErrConflict) {
        return ErrBookingConflict
    }
    return fmt.Errorf("%s: %w", op, err)
}

// InvoiceCode is INV-{unix millis}-{bookingID}.
func InvoiceCode(at time.Time, bookingID uint64) string {
    return fmt.Sprintf("INV-%d-%d", at.UnixMilli(), bookingID)
}
