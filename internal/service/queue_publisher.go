// Package service wires domain events onto RabbitMQ. Publish failures are
// logged and swallowed so reservation state never depends on the broker
// being up.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
    "marina-reservation/internal/queue"
)

// QueueNotifier publishes reservation lifecycle events to durable RabbitMQ
// queues. It implements booking.Notifier: the sweeper calls it after a
// state transition has already been committed, so nothing here may fail
// loudly.
type QueueNotifier struct {
    url string
}

// NewQueueNotifier returns a notifier publishing to the broker at url.
func NewQueueNotifier(url string) *QueueNotifier { return &QueueNotifier{url: url} }

var _ booking.Notifier = (*QueueNotifier)(nil)

// ReservationExpired publishes a ReservationExpiredEvent to the
// reservation.expired queue.
func (n *QueueNotifier) ReservationExpired(ctx context.Context, r model.Reservation) {
    ev := queue.ReservationExpiredEvent{
        ReservationID: r.ID,
        TenantID:      r.TenantID,
        ModelID:       r.ModelID,
        CustomerID:    r.CustomerID,
        Tier:          r.Tier,
        StartAt:       r.StartAt.UTC().Format(time.RFC3339),
        EndAt:         r.EndAt.UTC().Format(time.RFC3339),
        ExpiredAt:     r.UpdatedAt.UTC().Format(time.RFC3339),
    }
    n.publish(ctx, queue.ExpiredQueueName, ev)
}

// ExpirationApproaching publishes an ExpirationApproachingEvent to the
// reservation.expiring queue.
func (n *QueueNotifier) ExpirationApproaching(ctx context.Context, r model.Reservation) {
    ev := queue.ExpirationApproachingEvent{
        ReservationID: r.ID,
        TenantID:      r.TenantID,
        ModelID:       r.ModelID,
        CustomerID:    r.CustomerID,
        StartAt:       r.StartAt.UTC().Format(time.RFC3339),
    }
    if r.ExpiresAt != nil {
        ev.ExpiresAt = r.ExpiresAt.UTC().Format(time.RFC3339)
    }
    n.publish(ctx, queue.ExpiringQueueName, ev)
}

// publish dials, declares the durable queue and sends one persistent
// message. Connection-per-publish keeps the notifier stateless; the event
// volume here is a handful per sweep.
func (n *QueueNotifier) publish(ctx context.Context, queueName string, event interface{}) {
    conn, err := amqp.Dial(n.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return
    }
    defer func() { _ = ch.Close() }()

    // Idempotent declare. Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
    }
}
