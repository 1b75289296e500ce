package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
)

type fakeStore struct {
	rows map[string]Notification
	err  error
}

func (s *fakeStore) Insert(_ context.Context, n Notification) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.rows[n.EventID]; ok {
		return false, nil
	}
	s.rows[n.EventID] = n
	return true, nil
}

type fakeDedup struct {
	seen     map[string]bool
	released []string
	err      error
}

func (d *fakeDedup) Claim(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *fakeDedup) Release(_ context.Context, id string) error {
	delete(d.seen, id)
	d.released = append(d.released, id)
	return nil
}

func i64(v int64) *int64 { return &v }

func message(t *testing.T, eventID, eventType string, payload any) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	b, err := json.Marshal(orders.Envelope{EventID: eventID, EventType: eventType, EventVersion: 1, Payload: raw})
	require.NoError(t, err)
	return kafkago.Message{Topic: "order.events", Value: b}
}

func newService() (*Service, *fakeStore, *fakeDedup) {
	st := &fakeStore{rows: map[string]Notification{}}
	dd := &fakeDedup{seen: map[string]bool{}}
	return &Service{Store: st, Dedup: dd}, st, dd
}

func TestHandleOrderEvent_Cancelled(t *testing.T) {
	svc, st, _ := newService()
	m := message(t, "ev-1", orders.EventOrderCancelled, orders.OrderCancelledPayload{
		OrderID: 42, Invoice: "NX-42", SellerID: i64(9), Reason: "changed my mind",
	})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.Contains(t, st.rows, "ev-1")
	n := st.rows["ev-1"]
	assert.Equal(t, int64(9), n.SellerID)
	assert.Equal(t, int64(42), n.OrderID)
	assert.Equal(t, KindCancelled, n.Kind)
	assert.Equal(t, "Order Cancelled", n.Title)
	assert.Contains(t, n.Message, "NX-42")
	assert.Contains(t, n.Message, "changed my mind")
	assert.Equal(t, "seller/orders/detail/42", n.Link)
}

func TestHandleOrderEvent_StatusChangedUsesLookup(t *testing.T) {
	svc, st, _ := newService()
	var looked int64
	svc.Sellers = func(_ context.Context, orderID int64) (*int64, error) {
		looked = orderID
		return i64(12), nil
	}
	m := message(t, "ev-2", orders.EventOrderStatusChanged, orders.StatusChangedPayload{
		OrderID: 7, From: orders.StatusProcessing, To: orders.StatusShipped,
	})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Equal(t, int64(7), looked)
	n := st.rows["ev-2"]
	assert.Equal(t, int64(12), n.SellerID)
	assert.Equal(t, "Order Shipped", n.Title)
	assert.Equal(t, "Order #7 has been shipped", n.Message)
}

func TestHandleOrderEvent_UnknownStatusFallsBack(t *testing.T) {
	title, msg := statusChanged(orders.StatusChangedPayload{OrderID: 3, Invoice: "NX-3", To: orders.StatusUnpaid})
	assert.Equal(t, "Order Status Update", title)
	assert.Equal(t, "Order NX-3 status changed to unpaid", msg)
}

func TestHandleOrderEvent_Duplicate(t *testing.T) {
	svc, st, _ := newService()
	m := message(t, "ev-3", orders.EventOrderCancelled, orders.OrderCancelledPayload{OrderID: 1, SellerID: i64(2)})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Len(t, st.rows, 1)
}

func TestHandleOrderEvent_DedupDownStillInsertsOnce(t *testing.T) {
	svc, st, dd := newService()
	dd.err = errors.New("redis: connection refused")
	m := message(t, "ev-4", orders.EventOrderCancelled, orders.OrderCancelledPayload{OrderID: 1, SellerID: i64(2)})

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Len(t, st.rows, 1)
}

func TestHandleOrderEvent_InsertFailureReleasesClaim(t *testing.T) {
	svc, st, dd := newService()
	st.err = errors.New("too many connections")
	m := message(t, "ev-5", orders.EventOrderCancelled, orders.OrderCancelledPayload{OrderID: 1, SellerID: i64(2)})

	err := svc.HandleOrderEvent(context.Background(), m)
	require.Error(t, err)
	assert.Equal(t, []string{"ev-5"}, dd.released)

	st.err = nil
	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Len(t, st.rows, 1)
}

func TestHandleOrderEvent_Ignored(t *testing.T) {
	svc, st, dd := newService()
	ctx := context.Background()

	require.NoError(t, svc.HandleOrderEvent(ctx, kafkago.Message{Value: []byte("not json")}))
	require.NoError(t, svc.HandleOrderEvent(ctx, message(t, "ev-6", orders.EventCancellationReviewed, orders.CancellationReviewedPayload{OrderID: 1})))
	require.NoError(t, svc.HandleOrderEvent(ctx, message(t, "ev-7", orders.EventOrderCancelled, orders.OrderCancelledPayload{OrderID: 1})))

	assert.Empty(t, st.rows)
	assert.Empty(t, dd.seen)
}

func TestHandleOrderEvent_LookupError(t *testing.T) {
	svc, _, dd := newService()
	svc.Sellers = func(context.Context, int64) (*int64, error) { return nil, errors.New("db down") }
	m := message(t, "ev-8", orders.EventOrderStatusChanged, orders.StatusChangedPayload{OrderID: 5, To: orders.StatusPaid})

	require.Error(t, svc.HandleOrderEvent(context.Background(), m))
	assert.Empty(t, dd.seen)
}
