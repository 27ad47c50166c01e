package cache

import (
	"testing"
	"time"
)

func TestGetSetDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a; b is now oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size after cleanup = %d, want 0", c.Size())
	}
}

func TestPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	for i, key := range []string{"a", "b", "c"} {
		c.Set(key, i)
	}

	c.Purge()

	if c.Size() != 0 {
		t.Errorf("Size after Purge = %d, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Purge should miss")
	}

	// Cache stays usable after a purge.
	c.Set("d", 4)
	if v, ok := c.Get("d"); !ok || v != 4 {
		t.Errorf("Get(d) after Purge = %v, %v; want 4, true", v, ok)
	}
}
