package util

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	err := Retry(context.Background(), maxAttempts, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != maxAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, maxAttempts)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	attempts := 0
	sentinel := errors.New("not found")

	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		return Permanent(sentinel)
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("Retry returned %v, want %v", err, sentinel)
	}
	if attempts != 1 {
		t.Errorf("Retry called fn %d times, want 1", attempts)
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(60)
	if rl == nil {
		t.Fatal("NewRateLimiter returned nil")
	}
	// The first token is available immediately.
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait on cancelled context should fail")
	}

	unlimited := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		if err := unlimited.Wait(context.Background()); err != nil {
			t.Fatalf("unlimited Wait returned error: %v", err)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", got, want)
	}
	if FormatDate(got) != "2024-02-29" {
		t.Errorf("FormatDate = %q", FormatDate(got))
	}

	for _, bad := range []string{"", "2024-13-01", "2023-02-29", "01/02/2024"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(start, start); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
	if got := DaysBetween(start, start.AddDate(1, 0, 0)); got != 366 {
		t.Errorf("DaysBetween leap year = %d, want 366", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", "json")
	log.Info("dropped")
	log.Warn("kept", "ticker", "AAPL")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "kept" || rec["ticker"] != "AAPL" {
		t.Errorf("unexpected record %v", rec)
	}

	buf.Reset()
	newLogger(&buf, "bogus", "text").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text handler output = %q", buf.String())
	}
}
