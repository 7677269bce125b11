package movgr

import (
	"sync"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(1 * time.Minute)

	c.Set("key1", "value1")
	got, ok := c.Get("key1")
	if !ok {
		t.Fatal("Get('key1') should return true")
	}
	if got != "value1" {
		t.Errorf("Get('key1') = %v, want 'value1'", got)
	}
}

func TestCache_Miss(t *testing.T) {
	c := NewCache(1 * time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get('missing') should return false")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(50 * time.Millisecond)

	c.Set("key", "value")

	if _, ok := c.Get("key"); !ok {
		t.Fatal("key should be present immediately after Set")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("key should be expired after TTL")
	}
}

func TestCache_ZeroTTLDisables(t *testing.T) {
	c := NewCache(0)

	c.Set("key", "value")
	if _, ok := c.Get("key"); ok {
		t.Error("zero-TTL cache should never return a value")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := NewCache(50 * time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(60 * time.Millisecond)

	c.Set("c", 3)
	c.Cleanup()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.entries["a"]; ok {
		t.Error("expired entry 'a' should be cleaned up")
	}
	if _, ok := c.entries["b"]; ok {
		t.Error("expired entry 'b' should be cleaned up")
	}
	if _, ok := c.entries["c"]; !ok {
		t.Error("fresh entry 'c' should still be present")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(1 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set("key", n)
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get("key")
		}()
	}
	wg.Wait()

	if _, ok := c.Get("key"); !ok {
		t.Error("key should exist after concurrent writes")
	}
}
