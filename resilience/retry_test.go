package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fast(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fast(3)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	result, err := Retry(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary error")
		}
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Fatalf("Retry = %q, %v", result, err)
	}
	if calls != 3 || len(retried) != 2 || retried[1] != 2 {
		t.Errorf("calls = %d, retried = %v", calls, retried)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	calls := 0
	testErr := errors.New("persistent error")
	_, err := Retry(context.Background(), fast(4), func() (int, error) {
		calls++
		return 0, testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRetry_RetryIfStops(t *testing.T) {
	calls := 0
	permanent := errors.New("permanent")
	cfg := fast(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	cfg := fast(5)
	cfg.InitialBackoff, cfg.MaxBackoff = time.Hour, time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	calls = 0
	if _, err := Retry(ctx, cfg, func() (int, error) { calls++; return 0, nil }); err == nil || calls != 0 {
		t.Errorf("expired context: err = %v, calls = %d", err, calls)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(context.Canceled) || DefaultRetryIf(context.DeadlineExceeded) {
		t.Error("context errors should not be retried")
	}
	if !DefaultRetryIf(errors.New("io")) {
		t.Error("plain errors should be retried")
	}
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second}
	for i, w := range want {
		if got := Backoff(i+1, cfg); got != w {
			t.Errorf("attempt %d: backoff = %v, want %v", i+1, got, w)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 50; i++ {
		if got := Backoff(2, cfg); got < 100*time.Millisecond || got > 300*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [100ms, 300ms]", got)
		}
	}
}
