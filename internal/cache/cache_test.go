package cache

import (
	"testing"
	"time"
)

func TestCacheHitAndExpiry(t *testing.T) {
	c := New[string](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	if _, ok := c.Get("k"); ok {
		t.Error("empty cache returned a hit")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get = %q, %v; want v, true", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned a hit")
	}
}

func TestCacheZeroTTLDisabled(t *testing.T) {
	c := New[int](0)
	c.Set("k", 42)
	if _, ok := c.Get("k"); ok {
		t.Error("zero TTL cache must never hit")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCachePruneOnSet(t *testing.T) {
	c := New[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	if c.Len() != 1 {
		t.Errorf("Len = %d after prune, want 1", c.Len())
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("fresh entry missing after prune")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)
	if got, _ := c.Get("k"); got != 2 {
		t.Errorf("Get = %d, want 2", got)
	}
}
