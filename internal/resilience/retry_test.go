package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoVal_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(), func(_ context.Context) (string, error) {
		calls++
		return "FIG", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "FIG" || calls != 1 {
		t.Errorf("got %q after %d calls", val, calls)
	}
}

func TestDoVal_SuccessAfterRetry(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewTransientError(errors.New("temporary"), 503)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 || calls != 3 {
		t.Errorf("got %d after %d calls", val, calls)
	}
}

func TestDoVal_ExhaustsRetries(t *testing.T) {
	var calls int
	_, err := DoVal(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("always fails"), 500)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoVal_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	_, err := DoVal(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func TestDoVal_TerminalStatus_NoRetry(t *testing.T) {
	for _, code := range []int{401, 403, 404, 429} {
		var calls int
		_, _ = DoVal(context.Background(), fastRetry(), func(_ context.Context) (int, error) {
			calls++
			return 0, statusErr(code)
		})
		if calls != 1 {
			t.Errorf("status %d: expected 1 call, got %d", code, calls)
		}
	}
}

func TestDoVal_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}

	var calls int
	done := make(chan error, 1)
	go func() {
		_, err := DoVal(ctx, cfg, func(_ context.Context) (int, error) {
			calls++
			return 0, NewTransientError(errors.New("503"), 503)
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(time.Second):
		t.Fatal("DoVal did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_CustomShouldRetry(t *testing.T) {
	cfg := fastRetry()
	cfg.ShouldRetry = func(error) bool { return true }

	var calls int
	_, _ = DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("anything")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	cfg := fastRetry()
	var attempts []int
	cfg.OnRetry = func(attempt int, _ error) {
		attempts = append(attempts, attempt)
	}

	_, _ = DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		return 0, NewTransientError(errors.New("x"), 502)
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected retries [1 2], got %v", attempts)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d", cfg.MaxAttempts)
	}
	if cfg.InitialBackoff != 2*time.Second || cfg.MaxBackoff != 10*time.Second {
		t.Errorf("backoff = %v..%v", cfg.InitialBackoff, cfg.MaxBackoff)
	}
	if cfg.JitterFraction != 0 {
		t.Errorf("JitterFraction = %v", cfg.JitterFraction)
	}
}

func TestComputeBackoff_Schedule(t *testing.T) {
	cfg := DefaultRetryConfig()
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for attempt, w := range want {
		if got := computeBackoff(attempt, cfg); got != w {
			t.Errorf("attempt %d: got %v, want %v", attempt, got, w)
		}
	}
}

func TestComputeBackoff_WithJitter(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.JitterFraction = 0.5
	for i := 0; i < 100; i++ {
		d := computeBackoff(0, cfg)
		if d < time.Second || d > 3*time.Second {
			t.Fatalf("jittered delay %v outside [1s, 3s]", d)
		}
	}
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(0, 0, 0, 0, -1)
	if cfg.MaxAttempts != 3 || cfg.InitialBackoff != 2*time.Second || cfg.JitterFraction != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg = FromRetryConfig(5, 100, 1000, 3, 0.1)
	if cfg.MaxAttempts != 5 || cfg.InitialBackoff != 100*time.Millisecond ||
		cfg.MaxBackoff != time.Second || cfg.Multiplier != 3 || cfg.JitterFraction != 0.1 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestRetryLogger(t *testing.T) {
	fn := RetryLogger("whitepages", "lookup_person")
	fn(1, errors.New("503"))
}
