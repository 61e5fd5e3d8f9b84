package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var errTransient = errors.New("transient")

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var retried []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }
	r := New(p, nil)

	got, attempts, err := Do(context.Background(), r, func(_ context.Context, attempt int) (string, error) {
		if attempt < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{2, 3}, retried)
}

func TestDo_Exhausted(t *testing.T) {
	r := New(fastPolicy(2), nil)
	calls := 0
	_, attempts, err := Do(context.Background(), r, func(context.Context, int) (int, error) {
		calls++
		return 0, errTransient
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestDo_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	r := New(fastPolicy(1), nil)
	_, attempts, err := Do(context.Background(), r, func(context.Context, int) (int, error) {
		return 0, errTransient
	})
	assert.Same(t, errTransient, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	p := fastPolicy(5)
	p.ShouldRetry = func(err error) bool { return !errors.Is(err, fatal) }
	r := New(p, nil)

	calls := 0
	_, attempts, err := Do(context.Background(), r, func(context.Context, int) (int, error) {
		calls++
		return 0, fatal
	})
	assert.Same(t, fatal, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	p := fastPolicy(3)
	p.InitialDelay = time.Hour
	p.MaxDelay = time.Hour
	r := New(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, attempts, err := Do(ctx, r, func(context.Context, int) (int, error) {
		cancel()
		return 0, errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestNew_Normalizes(t *testing.T) {
	r := New(Policy{MaxAttempts: -3, Multiplier: 0.5}, nil)
	p := r.Policy()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, DefaultPolicy().InitialDelay, p.InitialDelay)
	assert.Equal(t, p.InitialDelay, p.MaxDelay)
	assert.Equal(t, 2.0, p.Multiplier)
}

// 属性：退避延迟始终位于 [InitialDelay, MaxDelay*1.25] 区间
func TestProperty_DelayBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initial := time.Duration(rapid.Int64Range(1, int64(time.Second)).Draw(rt, "initial"))
		maxDelay := initial * time.Duration(rapid.Int64Range(1, 100).Draw(rt, "factor"))
		r := New(Policy{
			MaxAttempts:  10,
			InitialDelay: initial,
			MaxDelay:     maxDelay,
			Multiplier:   rapid.Float64Range(1, 4).Draw(rt, "multiplier"),
			Jitter:       rapid.Bool().Draw(rt, "jitter"),
		}, nil)

		n := rapid.IntRange(1, 20).Draw(rt, "n")
		d := r.Delay(n)
		if d < initial {
			rt.Fatalf("delay %v below initial %v", d, initial)
		}
		if float64(d) > float64(maxDelay)*1.25+1 {
			rt.Fatalf("delay %v above cap %v", d, maxDelay)
		}
	})
}
