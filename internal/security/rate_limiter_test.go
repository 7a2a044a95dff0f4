package security

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderThreshold(t *testing.T) {
	rl := NewRateLimiter(5, time.Second, 100)
	for i := 0; i < 5; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("query %d unexpectedly refused", i)
		}
	}
}

func TestRateLimiterBlocksOverThresholdAndCoolsDown(t *testing.T) {
	rl := NewRateLimiter(2, 10*time.Millisecond, 100)
	if !rl.Allow("10.0.0.2") || !rl.Allow("10.0.0.2") {
		t.Fatal("first two queries within threshold should be allowed")
	}
	if rl.Allow("10.0.0.2") {
		t.Fatal("third query within the same window should be refused")
	}
	if rl.Allow("10.0.0.2") {
		t.Fatal("query during cooldown should be refused")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("10.0.0.2") {
		t.Fatal("query after cooldown expiry should be allowed")
	}
}

func TestRateLimiterTracksSourcesIndependently(t *testing.T) {
	rl := NewRateLimiter(1, time.Second, 100)
	if !rl.Allow("10.0.0.3") {
		t.Fatal("first source's first query should be allowed")
	}
	if !rl.Allow("10.0.0.4") {
		t.Fatal("second source's first query should be allowed regardless of the first source's state")
	}
}

func TestRateLimiterEvictsWhenOverCapacity(t *testing.T) {
	rl := NewRateLimiter(100, time.Second, 10)
	for i := 0; i < 15; i++ {
		rl.Allow(string(rune('a' + i)))
	}
	rl.mu.RLock()
	n := len(rl.sources)
	rl.mu.RUnlock()
	if n > 10 {
		t.Fatalf("sources = %d, expected eviction to have trimmed the map", n)
	}
}
