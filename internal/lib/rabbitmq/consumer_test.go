package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChannel(ctx context.Context, t *testing.T) *amqp.Channel {
	t.Helper()
	conn, err := Connect(amqpURI(ctx, t), 5, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func TestConsumerMessage_HandleMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	ch := openChannel(ctx, t)

	queueName := "consumer-test"
	_, err := ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	received := make([]string, 0)

	err = ConsumerMessage(ctx, newNoopLogger(), ch, queueName, func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(body))
		wg.Done()
		return nil
	})
	require.NoError(t, err)

	for _, msg := range []string{"hello", "world"} {
		require.NoError(t, ch.Publish("", queueName, false, false, amqp.Publishing{Body: []byte(msg)}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for messages to be processed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"hello", "world"}, received)
}

func TestConsumerMessage_FailedMessageRetriedOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	ch := openChannel(ctx, t)

	queueName := "retry-test"
	_, err := ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)

	var attempts atomic.Int32
	err = ConsumerMessage(ctx, newNoopLogger(), ch, queueName, func(_ []byte) error {
		attempts.Add(1)
		return errors.New("fail")
	})
	require.NoError(t, err)

	require.NoError(t, ch.Publish("", queueName, false, false, amqp.Publishing{Body: []byte("bad")}))

	require.Eventually(t, func() bool { return attempts.Load() >= 2 }, 10*time.Second, 50*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load(), "message is dropped after one redelivery")
}
