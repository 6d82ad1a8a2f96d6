package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	b := New(Config{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		got, ok := b.Next()
		require.True(t, ok)
		assert.Equal(t, w, got, "attempt %d", i)
	}
	assert.Equal(t, 5, b.Attempts())

	b.Reset()
	got, _ := b.Next()
	assert.Equal(t, time.Second, got)
}

func TestDefaults(t *testing.T) {
	b := New(Config{Multiplier: 0.5, Jitter: -1})
	got, ok := b.Next()
	require.True(t, ok)
	assert.Equal(t, DefaultInitial, got)
	got, _ = b.Next()
	assert.Equal(t, time.Duration(float64(DefaultInitial)*DefaultMultiplier), got)
}

func TestJitterBounds(t *testing.T) {
	b := New(Config{Initial: 100 * time.Millisecond, Jitter: 0.5, Multiplier: 1.0001, Max: time.Second})
	for i := 0; i < 20; i++ {
		b.Reset()
		got, _ := b.Next()
		assert.GreaterOrEqual(t, got, 100*time.Millisecond)
		assert.LessOrEqual(t, got, 150*time.Millisecond)
	}
}

func TestMaxAttempts(t *testing.T) {
	b := New(Config{Initial: time.Millisecond, MaxAttempts: 2})

	for i := 0; i < 2; i++ {
		ok, err := b.Wait(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := b.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaitCancelled(t *testing.T) {
	b := New(Config{Initial: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := b.Wait(ctx)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
}
