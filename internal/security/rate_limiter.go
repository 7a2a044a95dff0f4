// Package security protects the responder and discovery engines from
// malicious or malfunctioning peers on the local multicast segment: a
// keyed query-rate limiter (keyed by source and question, per RFC 6762
// §6.2) and a source-address allow/deny filter.
package security

import (
	"sync"
	"time"
)

// RateLimitEntry tracks query rate for a single key.
type RateLimitEntry struct {
	windowStart    time.Time
	cooldownExpiry time.Time
	lastSeen       time.Time
	key            string
	queryCount     int
}

// RateLimiter enforces a queries-per-second threshold per arbitrary string
// key, with a cooldown penalty once exceeded. The responder engine keys it
// by (source, question name, question type) rather than raw source address,
// so the guard targets RFC 6762 §6.2's actual concern — a peer hammering the
// same question — without penalizing a source issuing many distinct,
// legitimate browse queries in quick succession. The key map is bounded by
// maxEntries with LRU eviction so an attacker spoofing many sources or
// question names cannot exhaust memory.
type RateLimiter struct {
	threshold     int
	cooldown      time.Duration
	maxEntries    int
	sources       map[string]*RateLimitEntry
	mu            sync.RWMutex
	evictionCount uint64
}

// NewRateLimiter returns a limiter allowing up to threshold occurrences per
// second per key, imposing cooldown once exceeded, and tracking at most
// maxEntries distinct keys.
func NewRateLimiter(threshold int, cooldown time.Duration, maxEntries int) *RateLimiter {
	return &RateLimiter{
		threshold:  threshold,
		cooldown:   cooldown,
		maxEntries: maxEntries,
		sources:    make(map[string]*RateLimitEntry),
	}
}

// Allow reports whether an occurrence of key should be processed. A key
// already in cooldown, or one that has just crossed the threshold within
// the current one-second window, is refused.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	entry, exists := rl.sources[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		entry, exists = rl.sources[key]
		if !exists {
			rl.sources[key] = &RateLimitEntry{
				key:         key,
				queryCount:  1,
				windowStart: time.Now(),
				lastSeen:    time.Now(),
			}
			if len(rl.sources) > rl.maxEntries {
				rl.evict()
			}
			return true
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if !entry.cooldownExpiry.IsZero() && now.Before(entry.cooldownExpiry) {
		return false
	}

	if !entry.cooldownExpiry.IsZero() && now.After(entry.cooldownExpiry) {
		entry.queryCount = 1
		entry.windowStart = now
		entry.cooldownExpiry = time.Time{}
		entry.lastSeen = now
		return true
	}

	if now.Sub(entry.windowStart) > time.Second {
		entry.queryCount = 1
		entry.windowStart = now
		entry.cooldownExpiry = time.Time{}
	} else {
		entry.queryCount++
	}

	entry.lastSeen = now

	if entry.queryCount > rl.threshold {
		entry.cooldownExpiry = now.Add(rl.cooldown)
		return false
	}

	return true
}

// evict drops the oldest 10% of entries by lastSeen. Caller must hold mu.
func (rl *RateLimiter) evict() {
	evictCount := rl.maxEntries / 10
	if evictCount == 0 {
		evictCount = 1
	}

	type entryWithTime struct {
		key      string
		lastSeen time.Time
	}

	entries := make([]entryWithTime, 0, len(rl.sources))
	for key, entry := range rl.sources {
		entries = append(entries, entryWithTime{key: key, lastSeen: entry.lastSeen})
	}

	for i := 0; i < evictCount && i < len(entries); i++ {
		oldestIdx := i
		for j := i + 1; j < len(entries); j++ {
			if entries[j].lastSeen.Before(entries[oldestIdx].lastSeen) {
				oldestIdx = j
			}
		}
		entries[i], entries[oldestIdx] = entries[oldestIdx], entries[i]
	}

	evicted := 0
	for i := 0; i < evictCount && i < len(entries); i++ {
		delete(rl.sources, entries[i].key)
		evicted++
	}
	rl.evictionCount += uint64(evicted)
}

// Cleanup removes entries not seen in the last minute. Intended to run on a
// periodic timer (every few minutes) so the map does not grow unbounded
// from transient keys.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	var toDelete []string
	for key, entry := range rl.sources {
		if now.Sub(entry.lastSeen) > time.Minute {
			toDelete = append(toDelete, key)
		}
	}
	for _, key := range toDelete {
		delete(rl.sources, key)
	}
}
