package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Close() error
}

// Publisher sends confirmation jobs to RabbitMQ.  The connection is opened
// lazily on first publish and reopened after any failure, so a broker
// outage at startup does not keep the HTTP server from coming up.
type Publisher struct {
    log  *zap.Logger
    open func() (channel, io.Closer, error)

    mu   sync.Mutex
    ch   channel
    conn io.Closer
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{
        log: log,
        open: func() (channel, io.Closer, error) {
            conn, err := amqp.Dial(url)
            if err != nil {
                return nil, nil, fmt.Errorf("dial: %w", err)
            }
            ch, err := conn.Channel()
            if err != nil {
                _ = conn.Close()
                return nil, nil, fmt.Errorf("channel open: %w", err)
            }
            return ch, conn, nil
        },
    }
}

// PublishBookingConfirmed publishes ev as a persistent JSON message on
// ConfirmationQueue.  Errors are logged and returned; the caller decides
// whether they matter.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    if p.ch == nil {
        ch, conn, err := p.open()
        if err != nil {
            p.log.Warn("rabbitmq: connect failed", zap.Error(err))
            return err
        }
        // Durable so jobs survive broker restarts.
        if _, err := ch.QueueDeclare(ConfirmationQueue, true, false, false, false, nil); err != nil {
            _ = ch.Close()
            _ = conn.Close()
            p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
            return fmt.Errorf("queue declare: %w", err)
        }
        p.ch, p.conn = ch, conn
    }

    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := p.ch.PublishWithContext(ctx, "", ConfirmationQueue, false, false, msg); err != nil {
        p.log.Warn("rabbitmq: publish failed",
            zap.String("event_id", ev.EventID), zap.Uint64("invoice_id", ev.InvoiceID), zap.Error(err))
        p.resetLocked()
        return err
    }
    return nil
}

// Close releases the broker connection, if any.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.resetLocked()
    return nil
}

func (p *Publisher) resetLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}
