package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d denied within limit", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over the limit was allowed")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l := NewLimiter(1)
	if !l.Allow("10.0.0.1") {
		t.Fatal("first client denied")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client throttled by first client's window")
	}
}

func TestWindowResets(t *testing.T) {
	l := NewLimiter(1)
	now := time.Now()
	l.now = func() time.Time { return now }

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request denied")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("second request in window allowed")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("request denied after window elapsed")
	}
}
