package cache

import (
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	c := NewLocalCache()

	c.Set("k", "v", time.Minute)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %v, %v; want v, true", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key reported present")
	}

	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("invalidated key still present")
	}
}

func TestLocalCacheExpiry(t *testing.T) {
	c := NewLocalCache()

	c.Set("k", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry still readable")
	}
}
