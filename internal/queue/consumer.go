package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// errMalformed marks messages that can never be processed.
var errMalformed = errors.New("malformed message")

// Consumer reads confirmation jobs and hands rendered messages to a Mailer.
// Delivery is at-least-once; duplicates are filtered through the Deduper.
type Consumer struct {
    url    string
    mailer Mailer
    dedup  Deduper
    log    *zap.Logger
}

// NewConsumer wires a consumer.  dedup may be nil.
func NewConsumer(url string, mailer Mailer, dedup Deduper, log *zap.Logger) *Consumer {
    return &Consumer{url: url, mailer: mailer, dedup: dedup, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) whenever the
// connection drops.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("notification-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("notification-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("notification-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(ConfirmationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ConfirmationQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            err := c.Handle(ctx, d.Body)
            switch {
            case err == nil:
                _ = d.Ack(false)
            case errors.Is(err, errMalformed):
                c.log.Error("notification-consumer: dropping malformed message", zap.Error(err))
                _ = d.Nack(false, false)
            default:
                // One retry through the broker, then drop.
                c.log.Warn("notification-consumer: handle failed",
                    zap.Error(err), zap.Bool("redelivered", d.Redelivered))
                _ = d.Nack(false, !d.Redelivered)
            }
        }
    }
}

// Handle processes one message body.  A duplicate event id is
// acknowledged without sending anything.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var ev BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("%w: %v", errMalformed, err)
    }
    if ev.EventID == "" || ev.UserEmail == "" {
        return fmt.Errorf("%w: missing event_id or user_email", errMalformed)
    }

    if c.dedup != nil {
        first, err := c.dedup.Claim(ctx, ev.EventID)
        if err != nil {
            // Redis trouble should not block notifications.
            c.log.Warn("notification-consumer: dedup unavailable", zap.Error(err))
            first = true
        }
        if !first {
            c.log.Info("notification-consumer: duplicate event skipped", zap.String("event_id", ev.EventID))
            return nil
        }
    }

    if err := c.mailer.Send(ctx, Render(ev)); err != nil {
        if c.dedup != nil {
            if rerr := c.dedup.Release(ctx, ev.EventID); rerr != nil {
                c.log.Warn("notification-consumer: dedup release failed", zap.Error(rerr))
            }
        }
        return fmt.Errorf("send: %w", err)
    }
    c.log.Info("notification-consumer: confirmation sent",
        zap.String("event_id", ev.EventID),
        zap.Uint64("invoice_id", ev.InvoiceID),
        zap.String("invoice_code", ev.InvoiceCode))
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
