package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// Publisher wraps payloads in the v1 envelope and hands them to a Producer.
type Publisher struct {
	Producer    *Producer
	ServiceName string
}

func (p *Publisher) PublishEvent(ctx context.Context, topic, eventType string, orderID int64, payload any) error {
	raw, err := Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  orders.EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.ServiceName,
		TraceID:       traceID(ctx),
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       raw,
	}
	b, err := Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return p.Producer.Publish(ctx, topic, orders.PartitionKey(orderID), b,
		kafka.Header{Key: HeaderEventType, Value: []byte(eventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(orders.EventVersion))},
	)
}

type traceKey struct{}

// WithTraceID tags ctx so published envelopes carry the request id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
