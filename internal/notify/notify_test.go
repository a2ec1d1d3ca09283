package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ariefcatur/emall-pickup/internal/kafka"
	"github.com/ariefcatur/emall-pickup/internal/orders"
)

type capturePublisher struct {
	mu   sync.Mutex
	keys []string
	msgs [][]byte
	err  error
}

func (p *capturePublisher) Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.msgs = append(p.msgs, value)
	return nil
}

func TestValidate(t *testing.T) {
	n := Notification{UserID: "u-1", Title: "t", Message: "m"}
	require.NoError(t, n.Validate())
	assert.Equal(t, CategoryInfo, n.Category)

	bad := []Notification{
		{Title: "t", Message: "m"},
		{UserID: "u", Message: "m"},
		{UserID: "u", Title: "t"},
		{UserID: "u", Title: "t", Message: "m", Category: "sms"},
	}
	for _, b := range bad {
		assert.ErrorIs(t, b.Validate(), ErrInvalidNotification)
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", ShortID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestDispatcherPublishesEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	d := &Dispatcher{Producer: pub, ServiceName: "emall-pickup"}

	err := d.Notify(context.Background(), Notification{
		UserID: "c-1", Title: "Order Picked Up", Message: "done",
		Category: CategorySuccess, Link: "/orders/o-1",
		Metadata: map[string]string{"order_id": "o-1"},
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "c-1", pub.keys[0])

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.msgs[0], &env))
	assert.Equal(t, orders.EventNotificationRequested, env.EventType)
	assert.Equal(t, "o-1", env.CorrelationID)

	p, err := kafka.UnwrapPayload[orders.NotificationRequestedPayload](env.Payload)
	require.NoError(t, err)
	assert.NotEmpty(t, p.NotificationID)
	assert.Equal(t, "success", p.Category)
	assert.Equal(t, "/orders/o-1", p.Link)
}

func TestDispatcherRejectsInvalid(t *testing.T) {
	pub := &capturePublisher{}
	d := &Dispatcher{Producer: pub}
	err := d.Notify(context.Background(), Notification{UserID: "c-1"})
	assert.ErrorIs(t, err, ErrInvalidNotification)
	assert.Empty(t, pub.msgs)
}

func TestRepoInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &Repo{DB: mock}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("n-1", "c-1", "Hi", "there", "info", nil, nil, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("n-1", "c-1", "Hi", "there", "info", nil, nil, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	n := Notification{ID: "n-1", UserID: "c-1", Title: "Hi", Message: "there", Category: CategoryInfo}
	ok, err := repo.Insert(context.Background(), n, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Insert(context.Background(), n, at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type memStore struct {
	mu   sync.Mutex
	got  []Notification
	fail error
}

func (m *memStore) Insert(ctx context.Context, n Notification, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	m.got = append(m.got, n)
	return true, nil
}

func requestedMessage(t *testing.T, eventID string) kafkago.Message {
	t.Helper()
	env := orders.Envelope{
		EventID:    eventID,
		EventType:  orders.EventNotificationRequested,
		OccurredAt: time.Now().UTC(),
		Payload: kafka.MustMarshal(orders.NotificationRequestedPayload{
			NotificationID: "n-" + eventID, UserID: "c-1", Title: "Order Picked Up",
			Message: "Enjoy", Category: "success",
		}),
	}
	return kafkago.Message{Value: kafka.MustMarshal(env)}
}

func newService(t *testing.T, store Store) (*Service, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{Store: store, Redis: rdb, ServiceName: "notifier", Log: zaptest.NewLogger(t)}, s
}

func TestHandleMessageDeduplicates(t *testing.T) {
	store := &memStore{}
	svc, mr := newService(t, store)
	ctx := context.Background()

	m := requestedMessage(t, "ev-1")
	require.NoError(t, svc.HandleMessage(ctx, m))
	require.NoError(t, svc.HandleMessage(ctx, m))

	require.Len(t, store.got, 1)
	assert.Equal(t, "n-ev-1", store.got[0].ID)
	assert.True(t, mr.Exists("dedup:notifier:ev-1"))
	assert.Equal(t, CategorySuccess, store.got[0].Category)
}

func TestHandleMessageRetriesAfterStoreFailure(t *testing.T) {
	store := &memStore{fail: errors.New("db down")}
	svc, mr := newService(t, store)
	ctx := context.Background()
	m := requestedMessage(t, "ev-2")

	assert.Error(t, svc.HandleMessage(ctx, m))
	assert.False(t, mr.Exists("dedup:notifier:ev-2"), "failed message must stay retryable")

	store.fail = nil
	require.NoError(t, svc.HandleMessage(ctx, m))
	assert.Len(t, store.got, 1)
}

func TestHandleMessageIgnoresOtherEvents(t *testing.T) {
	store := &memStore{}
	svc, _ := newService(t, store)

	other := kafka.MustMarshal(orders.Envelope{EventID: "x", EventType: orders.EventPickupRedeemed})
	require.NoError(t, svc.HandleMessage(context.Background(), kafkago.Message{Value: other}))
	require.NoError(t, svc.HandleMessage(context.Background(), kafkago.Message{Value: []byte("{")}))
	assert.Empty(t, store.got)
}

func TestHandleMessageWithoutRedis(t *testing.T) {
	store := &memStore{}
	svc, s := newService(t, store)
	s.Close()

	require.NoError(t, svc.HandleMessage(context.Background(), requestedMessage(t, "ev-3")))
	assert.Len(t, store.got, 1)
}
