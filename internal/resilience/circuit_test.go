package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_AllowsWhileClosed(t *testing.T) {
	cb := NewCircuitBreaker("embed.test")
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(3), WithResetTimeout(time.Hour))

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	assert.False(t, cb.Allow(), "breaker should shut out callers once maxFailures is reached")
}

func TestCircuitBreaker_StaysClosedBelowMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(3), WithResetTimeout(time.Hour))

	cb.RecordFailure()
	cb.RecordFailure()

	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_RecordSuccessClosesAndResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(2), WithResetTimeout(time.Hour))

	cb.RecordFailure()
	cb.RecordFailure()
	require := assert.New(t)
	require.False(cb.Allow())

	cb.RecordSuccess()
	require.True(cb.Allow())
}

func TestCircuitBreaker_AdmitsSingleProbeAfterResetTimeout(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(1), WithResetTimeout(20*time.Millisecond))

	cb.RecordFailure()
	assert.False(t, cb.Allow())

	time.Sleep(30 * time.Millisecond)

	// Exactly one caller is let through as the half-open probe.
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow(), "a second concurrent caller must not also be treated as the probe")
}

func TestCircuitBreaker_HalfOpenFailureReopensImmediately(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(5), WithResetTimeout(20*time.Millisecond))

	cb.RecordFailure()
	time.Sleep(30 * time.Millisecond)

	require := assert.New(t)
	require.True(cb.Allow(), "probe should be admitted")

	// The probe fails; maxFailures is 5 and this is only the second
	// failure total, but a half-open failure must reopen regardless.
	cb.RecordFailure()
	require.False(cb.Allow())
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(1), WithResetTimeout(20*time.Millisecond))

	cb.RecordFailure()
	time.Sleep(30 * time.Millisecond)

	require := assert.New(t)
	require.True(cb.Allow())

	cb.RecordSuccess()
	require.True(cb.Allow())
}

func TestCircuitBreaker_ConcurrentFailuresNeverPanic(t *testing.T) {
	cb := NewCircuitBreaker("embed.test", WithMaxFailures(10), WithResetTimeout(time.Hour))

	var wg sync.WaitGroup
	var allowed atomic.Int32

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if cb.Allow() {
					allowed.Add(1)
				}
				return
			}
			cb.RecordFailure()
		}(i)
	}

	wg.Wait()
	assert.GreaterOrEqual(t, allowed.Load(), int32(0))
}
