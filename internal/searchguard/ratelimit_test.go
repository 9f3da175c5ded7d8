package searchguard

import (
	"testing"
	"time"
)

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l := NewLimiter(time.Minute)
	for i := 0; i < 5; i++ {
		if !l.Allow("key-a", 5) {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	if l.Allow("key-a", 5) {
		t.Fatal("expected 6th request to be rejected")
	}
}

func TestLimiterTracksKeysIndependently(t *testing.T) {
	l := NewLimiter(time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("key-a", 3) {
			t.Fatalf("key-a request %d unexpectedly rejected", i)
		}
	}
	if !l.Allow("key-b", 3) {
		t.Fatal("key-b's first request should not be affected by key-a's usage")
	}
}

func TestLimiterResetClearsState(t *testing.T) {
	l := NewLimiter(time.Minute)
	for i := 0; i < 2; i++ {
		l.Allow("key-a", 2)
	}
	if l.Allow("key-a", 2) {
		t.Fatal("expected key-a to be exhausted")
	}
	l.Reset("key-a")
	if !l.Allow("key-a", 2) {
		t.Fatal("expected key-a to be allowed again after reset")
	}
}
