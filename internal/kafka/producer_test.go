package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("broker unavailable")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "emall.pickup.events", 8, nil)
	p.Start()

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, []byte("order-1"), []byte(`{"a":1}`), kafka.Header{Key: "x-event-type", Value: []byte("PickupRedeemed")}))
	require.NoError(t, p.Publish(ctx, []byte("order-2"), []byte(`{"a":2}`)))

	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "order-1", string(w.msgs[0].Key))
	assert.Equal(t, "PickupRedeemed", Header(w.msgs[0].Headers, "x-event-type"))
	assert.True(t, w.closed)
}

func TestProducerRejectsAfterClose(t *testing.T) {
	p := newProducer(&fakeWriter{}, "t", 1, nil)
	p.Start()
	p.Close()
	p.WaitClosed()

	err := p.Publish(context.Background(), []byte("k"), []byte("v"))
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducerKeepsRunningOnWriteError(t *testing.T) {
	w := &fakeWriter{fail: true}
	p := newProducer(w, "t", 4, nil)
	p.Start()

	require.NoError(t, p.Publish(context.Background(), []byte("k"), []byte("v")))
	require.NoError(t, p.Publish(context.Background(), []byte("k"), []byte("v")))
	p.Close()
	p.WaitClosed()

	assert.True(t, w.closed)
}

func TestPublishHonoursContext(t *testing.T) {
	// no Start: the inbox fills up and nothing drains it
	p := newProducer(&fakeWriter{}, "t", 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, []byte("k"), []byte("v"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProducerCloseWhilePublishing(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "t", 1, nil)
	p.Start()

	var wg sync.WaitGroup
	errs := make(chan error, 32*50)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				errs <- p.Publish(context.Background(), []byte("k"), []byte("v"))
			}
		}()
	}
	p.Close()
	p.Close()
	wg.Wait()
	p.WaitClosed()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ErrProducerClosed)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.msgs, accepted, "every accepted message is flushed")
	assert.True(t, w.closed)
}

func TestPublishReleasedByClose(t *testing.T) {
	// no Start and no buffer: Publish blocks until Close
	p := newProducer(&fakeWriter{}, "t", 0, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Publish(context.Background(), []byte("k"), []byte("v")) }()

	p.Close()
	assert.ErrorIs(t, <-errCh, ErrProducerClosed)
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
	}
	got, err := UnwrapPayload[payload]([]byte(`{"order_id":"o-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.OrderID)

	_, err = UnwrapPayload[payload]([]byte(`{`))
	assert.Error(t, err)
}
