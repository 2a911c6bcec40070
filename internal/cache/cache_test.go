package cache

import (
	"context"
	"testing"
	"time"
)

// A disabled cache (no Redis configured or reachable) must behave as a
// permanent miss, never an error: every handler path calls these methods
// unconditionally.
func TestDisabledCacheIsNoOp(t *testing.T) {
	ctx := context.Background()
	disabled := &Cache{}

	var dest map[string]int
	if disabled.Get(ctx, "user_stats:1", &dest) {
		t.Error("Get on disabled cache reported a hit")
	}
	if dest != nil {
		t.Errorf("Get on disabled cache wrote %v into dest", dest)
	}

	// None of these may panic or block.
	disabled.Set(ctx, "user_stats:1", map[string]int{"total": 3}, 5*time.Minute)
	disabled.Delete(ctx, "user_stats:1", "popular_quizzes")
	disabled.Delete(ctx)

	if disabled.Get(ctx, "user_stats:1", &dest) {
		t.Error("Set on disabled cache stored a value")
	}

	if err := disabled.Close(); err != nil {
		t.Errorf("Close on disabled cache: %v", err)
	}
}

func TestNilCacheIsNoOp(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	var dest int
	if c.Get(ctx, "key", &dest) {
		t.Error("Get on nil cache reported a hit")
	}
	c.Set(ctx, "key", 1, time.Minute)
	c.Delete(ctx, "key")
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil cache: %v", err)
	}
}
