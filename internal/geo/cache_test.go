package geo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_ExpiryAndEviction(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache[int](2, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(time.Second)
	c.Set("b", 2)
	now = now.Add(time.Second)
	c.Get("a") // b is now least recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("c"); ok {
		t.Error("c should have expired")
	}
	c.Cleanup()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after cleanup, want 0", c.Size())
	}
}

func TestCachedLocator(t *testing.T) {
	next := &stubLocator{rec: Record{Country: "France"}}
	cached := NewCachedLocator(next, 10, time.Hour)

	for i := 0; i < 3; i++ {
		rec, err := cached.Locate(context.Background(), "9.9.9.9")
		if err != nil || rec.Country != "France" {
			t.Fatalf("Locate() = %+v, %v", rec, err)
		}
	}
	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}

	failing := &stubLocator{err: errors.New("boom")}
	cached = NewCachedLocator(failing, 10, time.Hour)
	cached.Locate(context.Background(), "10.1.1.1")
	if _, err := cached.Locate(context.Background(), "10.1.1.1"); err == nil {
		t.Error("cached failure should be returned")
	}
	if failing.calls != 1 {
		t.Errorf("failing calls = %d, want 1", failing.calls)
	}
}
