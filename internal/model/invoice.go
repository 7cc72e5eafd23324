package model

import (
    "fmt"
    "time"
)

// InvoiceStatus is the payment lifecycle of an invoice.  The only legal
// transitions are PENDING -> PAID and PENDING -> CANCELED.
type InvoiceStatus string

const (
    InvoicePending  InvoiceStatus = "PENDING"
    InvoicePaid     InvoiceStatus = "PAID"
    InvoiceCanceled InvoiceStatus = "CANCELED"
)

var invoiceNext = map[InvoiceStatus]map[InvoiceStatus]bool{
    InvoicePending:  {InvoicePaid: true, InvoiceCanceled: true},
    InvoicePaid:     {},
    InvoiceCanceled: {},
}

// CanTransition reports whether an invoice may move from one status to
// another.
func (s InvoiceStatus) CanTransition(to InvoiceStatus) bool {
    return invoiceNext[s][to]
}


// PaymentMethod is sent on the wire as 0/1/2 and stored by name.
type PaymentMethod int

const (
    PaymentCash         PaymentMethod = 0
    PaymentBankTransfer PaymentMethod = 1
    PaymentCard         PaymentMethod = 2
)

func (m PaymentMethod) String() string {
    switch m {
    case PaymentCash:
        return "CASH"
    case PaymentBankTransfer:
        return "BANK_TRANSFER"
    case PaymentCard:
        return "CARD"
    }
    return fmt.Sprintf("PaymentMethod(%d)", int(m))
}

// Valid reports whether m is one of the known methods.
func (m PaymentMethod) Valid() bool { return m >= PaymentCash && m <= PaymentCard }

// ParsePaymentMethod converts the stored name back to a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
    switch s {
    case "CASH":
        return PaymentCash, nil
    case "BANK_TRANSFER":
        return PaymentBankTransfer, nil
    case "CARD":
        return PaymentCard, nil
    }
    return 0, fmt.Errorf("unknown payment method %q", s)
}

// Invoice is the single payable record of a booking (1:1).
//
// Fields:
//  ID               – primary key identifier.
//  BookingID        – booking this invoice bills; unique.
//  InvoiceCode      – unique human readable code, INV-{millis}-{bookingID}.
//  SubtotalCents    – sum of room and service lines.
//  TotalAmountCents – amount to pay.
//  PaymentMethod    – method chosen at booking time.
//  Status           – payment status.
//  TxnRef           – gateway transaction reference of the current attempt.
//  IssuedDate       – creation timestamp.
//  PaidDate         – set when the invoice becomes PAID.
type Invoice struct {
    ID               uint64        `json:"id"`
    BookingID        uint64        `json:"booking_id"`
    InvoiceCode      string        `json:"invoice_code"`
    SubtotalCents    int64         `json:"subtotal_cents"`
    TotalAmountCents int64         `json:"total_amount_cents"`
    PaymentMethod    PaymentMethod `json:"payment_method"`
    Status           InvoiceStatus `json:"status"`
    TxnRef           *string       `json:"txn_ref,omitempty"`
    IssuedDate       time.Time     `json:"issued_date"`
    PaidDate         *time.Time    `json:"paid_date,omitempty"`
}

// InvoiceDetail is an invoice together with the booking it bills, the
// booking's line items and its owner.  It is what the payment callback
// loads and what the confirmation notification carries.
type InvoiceDetail struct {
    Invoice
    Booking  Booking          `json:"booking"`
    Rooms    []BookingRoom    `json:"rooms"`
    Services []BookingService `json:"services"`
    User     User             `json:"user"`
}
