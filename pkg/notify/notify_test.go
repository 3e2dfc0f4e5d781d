package notify

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(context.Background(), Notification{Level: LevelSuccess, Title: "a"})
	r.Notify(context.Background(), Notification{Level: LevelError, Title: "b"})

	all := r.All()
	require.Len(t, all, 2)
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Title)

	r.Reset()
	assert.Empty(t, r.All())
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := Multi(a, nil, b)
	sink.Notify(context.Background(), Notification{Title: "x"})
	assert.Len(t, a.All(), 1)
	assert.Len(t, b.All(), 1)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Notify(context.Background(), Notification{Title: "x"})
	})
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink(&buf)
	sink.Notify(context.Background(), Notification{Level: LevelSuccess, Title: "User deleted", Description: "gone"})
	sink.Notify(context.Background(), Notification{Level: LevelError, Title: "Failed to add user"})

	assert.Equal(t, "Success: User deleted - gone\nError: Failed to add user\n", buf.String())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	LogSink(logger).Notify(context.Background(), Notification{Level: LevelError, Title: "boom", Op: "create"})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=boom")
	assert.Contains(t, out, "op=create")
}

func TestBus_Delivery(t *testing.T) {
	bus := NewBus()
	sub, unsubscribe := bus.Subscribe()
	assert.Equal(t, 1, bus.Subscribers())

	bus.Notify(context.Background(), Notification{Title: "hello"})
	got := <-sub
	assert.Equal(t, "hello", got.Title)

	unsubscribe()
	assert.Equal(t, 0, bus.Subscribers())
	_, open := <-sub
	assert.False(t, open, "unsubscribe should close the channel")

	// Publishing with no subscribers is fine.
	bus.Notify(context.Background(), Notification{Title: "nobody"})
}

func TestBus_FullSubscriberDrops(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < DefaultBufferSize+5; i++ {
		bus.Notify(context.Background(), Notification{Title: "n"})
	}
	assert.Equal(t, int64(5), bus.Dropped())
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()
	sub, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Notify(context.Background(), Notification{Title: "c"})
		}()
	}
	wg.Wait()
	assert.Len(t, sub, 10)
}
