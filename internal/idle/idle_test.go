package idle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockAdvancesOnTouch(t *testing.T) {
	clock := NewClock()
	before := clock.Last()
	time.Sleep(5 * time.Millisecond)
	clock.Touch()
	assert.True(t, clock.Last().After(before))
	assert.Less(t, clock.IdleFor(), time.Second)
}

func TestWaitReturnsImmediatelyWhenAlreadyIdle(t *testing.T) {
	clock := NewClock()
	time.Sleep(30 * time.Millisecond)

	start := time.Now()
	err := Wait(context.Background(), 20*time.Millisecond, clock)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 15*time.Millisecond)
}

func TestWaitBlocksUntilIdle(t *testing.T) {
	clock := NewClock()
	clock.Touch()

	start := time.Now()
	err := Wait(context.Background(), 100*time.Millisecond, clock)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWaitExtendedByNewActivity(t *testing.T) {
	clock := NewClock()
	clock.Touch()

	// Fresh activity halfway through the window restarts the idle math.
	go func() {
		time.Sleep(60 * time.Millisecond)
		clock.Touch()
	}()

	start := time.Now()
	err := Wait(context.Background(), 100*time.Millisecond, clock)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

// A stop request must win even when the idle window is already satisfied;
// otherwise the scheduler would issue one more refresh after cancellation.
func TestWaitCancelledWhenAlreadyIdle(t *testing.T) {
	clock := NewClock()
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, 10*time.Millisecond, clock)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitReturnsEarlyOnCancel(t *testing.T) {
	clock := NewClock()
	clock.Touch()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Wait(ctx, time.Hour, clock)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancel must not wait for a full poll tick")
}
