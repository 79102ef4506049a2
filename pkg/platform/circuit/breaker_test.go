package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsClosedWithDefaults(t *testing.T) {
	b := New("audit-store")
	assert.Equal(t, "audit-store", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())

	for range DefaultFailureThreshold - 1 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "one short of the default threshold")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestRecordFailure_OpensOnThreshold(t *testing.T) {
	b := New("audit-store", WithFailureThreshold(3))

	for i := range 2 {
		fallback, change := b.RecordFailure()
		require.False(t, fallback, "failure %d", i+1)
		require.False(t, change.Opened, "failure %d", i+1)
	}

	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())

	// Failing again while open reports no new transition.
	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened)
}

func TestRecordSuccess(t *testing.T) {
	t.Run("closes after the success threshold", func(t *testing.T) {
		b := New("audit-store", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		require.True(t, b.IsOpen())

		primary, change := b.RecordSuccess()
		assert.False(t, primary)
		assert.False(t, change.Closed)

		primary, change = b.RecordSuccess()
		assert.True(t, primary)
		assert.True(t, change.Closed)
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("resets the failure streak while closed", func(t *testing.T) {
		b := New("audit-store", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
	})

	t.Run("a failure while open restarts the success count", func(t *testing.T) {
		b := New("audit-store", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		assert.True(t, b.IsOpen())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
	})
}

func TestReset(t *testing.T) {
	b := New("audit-store", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestAllow_HonoursCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := New("audit-store", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "probe allowed after cooldown")

	// A failed probe restarts the cooldown.
	b.RecordFailure()
	assert.False(t, b.Allow())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
}
