package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRegistry(t *testing.T) {
	rod, err := New("rod", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "rod", rod.Name())

	pw, err := New("playwright", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "playwright", pw.Name())

	_, err = New("selenium", zap.NewNop())
	require.Error(t, err)
}

func TestSubscribersFanOut(t *testing.T) {
	var subs subscribers
	var got1, got2 []Event
	subs.add(func(ev Event) { got1 = append(got1, ev) })
	subs.add(func(ev Event) { got2 = append(got2, ev) })

	subs.emit(Event{Kind: PageLoaded, URL: "https://example.com/"})

	require.Len(t, got1, 1)
	require.Len(t, got2, 1)
	assert.Equal(t, got1[0], got2[0])
}

func TestSubscribersStampTime(t *testing.T) {
	var subs subscribers
	var got Event
	subs.add(func(ev Event) { got = ev })

	subs.emit(Event{Kind: RequestStarted})
	assert.False(t, got.At.IsZero(), "emit must stamp missing timestamps")

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	subs.emit(Event{Kind: RequestFinished, At: at})
	assert.Equal(t, at, got.At, "explicit timestamps pass through")
}

func TestSubscribersConcurrentEmit(t *testing.T) {
	var subs subscribers
	var mu sync.Mutex
	count := 0
	subs.add(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				subs.emit(Event{Kind: ResponseReceived})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 200, count)
}
