package cache

import (
	"testing"
	"time"
)

func TestLRUSetGet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	if got, ok := c.Get("a"); !ok || got != 1 {
		t.Fatalf("expected 1, got %d (ok=%v)", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, b becomes oldest
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a retained")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)
	if cleaned := c.CleanExpired(); cleaned != 1 {
		t.Fatalf("expected 1 cleaned, got %d", cleaned)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUPurge(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	c.Set("a", "x")
	c.Set("b", "y")
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("expected empty after purge")
	}
}
