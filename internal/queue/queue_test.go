package queue

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/model"
)

func sampleDetail() *model.InvoiceDetail {
    start := time.Date(2030, 1, 1, 14, 0, 0, 0, time.UTC)
    paid := start.Add(-time.Hour)
    return &model.InvoiceDetail{
        Invoice: model.Invoice{
            ID: 7, BookingID: 42, InvoiceCode: "INV-1-42",
            SubtotalCents: 140000, TotalAmountCents: 140000,
            PaymentMethod: model.PaymentCard, Status: model.InvoicePaid,
            IssuedDate: start.Add(-2 * time.Hour), PaidDate: &paid,
        },
        Booking:  model.Booking{ID: 42, UserID: 5, StartTime: start, EndTime: start.Add(24 * time.Hour), NumAdults: 2},
        Rooms:    []model.BookingRoom{{RoomID: 1, RoomNumber: "101", PriceAtBookingCents: 100000}},
        Services: []model.BookingService{{ServiceID: 1, ServiceName: "Breakfast", Quantity: 2, PriceAtBookingCents: 20000}},
        User:     model.User{ID: 5, Name: "Lan", Email: "lan@example.com"},
    }
}

func TestNewBookingConfirmedEvent_Snapshot(t *testing.T) {
    ev := NewBookingConfirmedEvent(sampleDetail(), "vi", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

    assert.NotEmpty(t, ev.EventID)
    assert.Equal(t, "vi", ev.Lang)
    assert.Equal(t, "lan@example.com", ev.UserEmail)
    assert.Equal(t, "CARD", ev.PaymentMethod)
    assert.Equal(t, int64(140000), ev.TotalAmountCents)
    assert.Equal(t, "2030-01-01T14:00:00Z", ev.StartTime)
    assert.Equal(t, "2030-01-01T13:00:00Z", ev.PaidDate)
    assert.Equal(t, []RoomLine{{RoomNumber: "101", PriceAtBookingCents: 100000}}, ev.Rooms)
    assert.Equal(t, []ServiceLine{{Name: "Breakfast", Quantity: 2, PriceAtBookingCents: 20000}}, ev.Services)

    other := NewBookingConfirmedEvent(sampleDetail(), "vi", time.Now())
    assert.NotEqual(t, ev.EventID, other.EventID)
}

func TestRender(t *testing.T) {
    msg := Render(NewBookingConfirmedEvent(sampleDetail(), "en", time.Now()))
    assert.Equal(t, "lan@example.com", msg.To)
    assert.Equal(t, "Booking confirmation INV-1-42", msg.Subject)
    assert.Contains(t, msg.Body, "Room 101: 1000.00 per night")
    assert.Contains(t, msg.Body, "Breakfast x2: 200.00 each")
    assert.Contains(t, msg.Body, "Total: 1400.00")
}

func TestFormatCents(t *testing.T) {
    assert.Equal(t, "0.05", FormatCents(5))
    assert.Equal(t, "1400.00", FormatCents(140000))
    assert.Equal(t, "-1.50", FormatCents(-150))
}

func TestFileMailer_AppendsOneLinePerMessage(t *testing.T) {
    m := &FileMailer{Path: filepath.Join(t.TempDir(), "logs", "notifications.log")}
    require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Body: "x\ny"}))
    require.NoError(t, m.Send(context.Background(), Message{To: "b@example.com", Subject: "s", Body: "z"}))

    data, err := os.ReadFile(m.Path)
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "to=a@example.com")
    assert.Contains(t, lines[0], `body="x | y"`)
}

type memDeduper struct {
    seen     map[string]bool
    released []string
    err      error
}

func (d *memDeduper) Claim(_ context.Context, id string) (bool, error) {
    if d.err != nil {
        return false, d.err
    }
    if d.seen[id] {
        return false, nil
    }
    d.seen[id] = true
    return true, nil
}

func (d *memDeduper) Release(_ context.Context, id string) error {
    delete(d.seen, id)
    d.released = append(d.released, id)
    return nil
}

type memMailer struct {
    sent []Message
    err  error
}

func (m *memMailer) Send(_ context.Context, msg Message) error {
    if m.err != nil {
        return m.err
    }
    m.sent = append(m.sent, msg)
    return nil
}

func eventBody(t *testing.T) []byte {
    t.Helper()
    b, err := json.Marshal(NewBookingConfirmedEvent(sampleDetail(), "en", time.Now()))
    require.NoError(t, err)
    return b
}

func TestConsumerHandle_DuplicateDeliverySentOnce(t *testing.T) {
    mailer := &memMailer{}
    c := NewConsumer("", mailer, &memDeduper{seen: map[string]bool{}}, zap.NewNop())
    body := eventBody(t)

    require.NoError(t, c.Handle(context.Background(), body))
    require.NoError(t, c.Handle(context.Background(), body))
    assert.Len(t, mailer.sent, 1)
}

func TestConsumerHandle_SendFailureReleasesClaim(t *testing.T) {
    dedup := &memDeduper{seen: map[string]bool{}}
    c := NewConsumer("", &memMailer{err: errors.New("smtp down")}, dedup, zap.NewNop())

    err := c.Handle(context.Background(), eventBody(t))
    require.Error(t, err)
    assert.False(t, errors.Is(err, errMalformed))
    assert.Len(t, dedup.released, 1)
    assert.Empty(t, dedup.seen)
}

func TestConsumerHandle_DedupOutageStillSends(t *testing.T) {
    mailer := &memMailer{}
    c := NewConsumer("", mailer, &memDeduper{err: errors.New("redis down")}, zap.NewNop())
    require.NoError(t, c.Handle(context.Background(), eventBody(t)))
    assert.Len(t, mailer.sent, 1)
}

func TestConsumerHandle_Malformed(t *testing.T) {
    c := NewConsumer("", &memMailer{}, nil, zap.NewNop())
    assert.ErrorIs(t, c.Handle(context.Background(), []byte("{")), errMalformed)
    assert.ErrorIs(t, c.Handle(context.Background(), []byte(`{"event_id":""}`)), errMalformed)
}

func TestRedisDeduper_NilClientTreatsEverythingAsNew(t *testing.T) {
    d := NewRedisDeduper(nil, 0)
    first, err := d.Claim(context.Background(), "x")
    require.NoError(t, err)
    assert.True(t, first)
    assert.NoError(t, d.Release(context.Background(), "x"))
    assert.Equal(t, "dedup:notifier:x", dedupKey("x"))
}

type fakeChannel struct {
    declared  []string
    published []amqp.Publishing
    pubErr    error
    closed    bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
    if durable {
        f.declared = append(f.declared, name)
    }
    return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
    if f.pubErr != nil {
        return f.pubErr
    }
    f.published = append(f.published, msg)
    return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestPublisher_PersistentJSONOnDurableQueue(t *testing.T) {
    ch := &fakeChannel{}
    opens := 0
    p := NewPublisher("", zap.NewNop())
    p.open = func() (channel, io.Closer, error) { opens++; return ch, nopCloser{}, nil }

    ev := NewBookingConfirmedEvent(sampleDetail(), "en", time.Now())
    require.NoError(t, p.PublishBookingConfirmed(context.Background(), ev))
    require.NoError(t, p.PublishBookingConfirmed(context.Background(), ev))

    assert.Equal(t, 1, opens)
    assert.Equal(t, []string{ConfirmationQueue}, ch.declared)
    require.Len(t, ch.published, 2)
    msg := ch.published[0]
    assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
    assert.Equal(t, ev.EventID, msg.MessageId)

    var decoded BookingConfirmedEvent
    require.NoError(t, json.Unmarshal(msg.Body, &decoded))
    assert.Equal(t, ev.InvoiceCode, decoded.InvoiceCode)
}

func TestPublisher_ReconnectsAfterFailure(t *testing.T) {
    bad := &fakeChannel{pubErr: errors.New("channel closed")}
    good := &fakeChannel{}
    chans := []*fakeChannel{bad, good}
    p := NewPublisher("", zap.NewNop())
    p.open = func() (channel, io.Closer, error) {
        c := chans[0]
        chans = chans[1:]
        return c, nopCloser{}, nil
    }
    ev := NewBookingConfirmedEvent(sampleDetail(), "en", time.Now())

    assert.Error(t, p.PublishBookingConfirmed(context.Background(), ev))
    assert.True(t, bad.closed)
    require.NoError(t, p.PublishBookingConfirmed(context.Background(), ev))
    assert.Len(t, good.published, 1)
}

func TestPublisher_ConnectError(t *testing.T) {
    p := NewPublisher("", zap.NewNop())
    p.open = func() (channel, io.Closer, error) { return nil, nil, errors.New("refused") }
    assert.Error(t, p.PublishBookingConfirmed(context.Background(), BookingConfirmedEvent{EventID: "x"}))
}
