package queue

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"
)

// Message is a rendered notification.
type Message struct {
    To      string
    Subject string
    Body    string
}

// Mailer delivers rendered notifications.
type Mailer interface {
    Send(ctx context.Context, m Message) error
}

// FileMailer appends each message as a single line to a log file.  It
// stands in for outbound email, which lives outside this service.
type FileMailer struct {
    Path string

    mu sync.Mutex
}

// NewFileMailer writes to logs/notifications.log.
func NewFileMailer() *FileMailer {
    return &FileMailer{Path: filepath.Join("logs", "notifications.log")}
}

func (m *FileMailer) Send(_ context.Context, msg Message) error {
    m.mu.Lock()
    defer m.mu.Unlock()

    if err := os.MkdirAll(filepath.Dir(m.Path), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(m.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open notification log: %w", err)
    }
    defer f.Close()

    body := strings.ReplaceAll(msg.Body, "\n", " | ")
    line := fmt.Sprintf("[%s] to=%s subject=%q body=%q\n",
        time.Now().UTC().Format(time.RFC3339), msg.To, msg.Subject, body)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write notification log: %w", err)
    }
    return nil
}

// Render builds the confirmation message for ev.  Amounts are printed with
// two fractional digits.
func Render(ev BookingConfirmedEvent) Message {
    var b strings.Builder
    fmt.Fprintf(&b, "Hello %s,\n", ev.UserName)
    fmt.Fprintf(&b, "Your booking #%d is confirmed.\n", ev.BookingID)
    fmt.Fprintf(&b, "Invoice %s paid by %s on %s.\n", ev.InvoiceCode, ev.PaymentMethod, ev.PaidDate)
    fmt.Fprintf(&b, "Stay: %s to %s, %d adult(s), %d child(ren).\n", ev.StartTime, ev.EndTime, ev.NumAdults, ev.NumChildren)
    for _, r := range ev.Rooms {
        fmt.Fprintf(&b, "Room %s: %s per night\n", r.RoomNumber, FormatCents(r.PriceAtBookingCents))
    }
    for _, s := range ev.Services {
        fmt.Fprintf(&b, "%s x%d: %s each\n", s.Name, s.Quantity, FormatCents(s.PriceAtBookingCents))
    }
    fmt.Fprintf(&b, "Total: %s", FormatCents(ev.TotalAmountCents))
    return Message{
        To:      ev.UserEmail,
        Subject: "Booking confirmation " + ev.InvoiceCode,
        Body:    b.String(),
    }
}

// FormatCents renders minor units as a decimal with two fractional digits.
func FormatCents(c int64) string {
    sign := ""
    if c < 0 {
        sign, c = "-", -c
    }
    return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
