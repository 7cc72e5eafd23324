// Package repository holds the MySQL data access for rooms, services,
// bookings and invoices.  Methods suffixed with Tx run inside a caller
// owned transaction; the caller decides when to commit or roll back.
//
// The sentinel errors below let the service layer tell failure
// scenarios apart with errors.Is.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write violates a uniqueness constraint,
// such as a duplicate invoice_code or txn_ref.  Handlers translate it into
// HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound is returned when one or more requested rooms do not exist.
var ErrRoomNotFound = errors.New("room not found")

// ErrServiceNotFound is returned when one or more requested services do not exist.
var ErrServiceNotFound = errors.New("service not found")

// ErrInvoiceNotFound is returned when no invoice matches the given id.
var ErrInvoiceNotFound = errors.New("invoice not found")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
