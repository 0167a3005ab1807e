package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacerRetriesThenSucceeds(t *testing.T) {
	p := New(MinSleep(time.Millisecond), MaxSleep(5*time.Millisecond), MaxRetries(5))
	calls := 0
	err := p.Call(context.Background(), func() (bool, error) {
		calls++
		if calls < 3 {
			return true, errors.New("transient")
		}
		return false, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPacerGivesUpAfterMaxRetries(t *testing.T) {
	p := New(MinSleep(time.Millisecond), MaxSleep(2*time.Millisecond), MaxRetries(3))
	calls := 0
	err := p.Call(context.Background(), func() (bool, error) {
		calls++
		return true, errors.New("always fails")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestPacerNonRetryableStopsImmediately(t *testing.T) {
	p := New(MinSleep(time.Millisecond), MaxRetries(5))
	calls := 0
	err := p.Call(context.Background(), func() (bool, error) {
		calls++
		return false, errors.New("fatal")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPacerRateLimitSpreadsCalls(t *testing.T) {
	p := New(MinSleep(time.Millisecond), MaxRetries(1), RateLimit(1000, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		calls := 0
		err := p.Call(context.Background(), func() (bool, error) {
			calls++
			return false, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	}
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}
