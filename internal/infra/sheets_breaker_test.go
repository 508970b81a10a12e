package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errQuota = errors.New("googleapi: Error 429: quota exceeded")

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := NewSheetsBreaker(SheetsBreakerConfig{TripAfter: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Do(func() error { return errQuota }), errQuota)
	}
	assert.Equal(t, BreakerOpen, b.State())

	err := b.Do(func() error {
		t.Fatal("call must not reach the API while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrSheetsUnavailable)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewSheetsBreaker(SheetsBreakerConfig{TripAfter: 2, Cooldown: time.Minute})

	require.Error(t, b.Do(func() error { return errQuota }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return errQuota }))

	// One failure after a success is below the trip threshold.
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerProbeClosesOnSuccess(t *testing.T) {
	b := NewSheetsBreaker(SheetsBreakerConfig{TripAfter: 1, Cooldown: 10 * time.Millisecond})

	require.Error(t, b.Do(func() error { return errQuota }))
	require.ErrorIs(t, b.Do(func() error { return nil }), ErrSheetsUnavailable)

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, BreakerProbing, b.State())

	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b := NewSheetsBreaker(SheetsBreakerConfig{TripAfter: 1, Cooldown: 10 * time.Millisecond})

	require.Error(t, b.Do(func() error { return errQuota }))
	time.Sleep(15 * time.Millisecond)

	require.ErrorIs(t, b.Do(func() error { return errQuota }), errQuota)
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrSheetsUnavailable)
}
