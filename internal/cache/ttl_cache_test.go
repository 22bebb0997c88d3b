package cache

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTest(ttl time.Duration) (*TTLCache[string, int], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int](ttl)
	c.now = clock.Now
	return c, clock
}

func TestGetSet(t *testing.T) {
	c, clock := newTest(time.Minute)

	if _, ok := c.Get("KJV"); ok {
		t.Fatal("Get() on empty cache should miss")
	}
	c.Set("KJV", 31102)
	if v, ok := c.Get("KJV"); !ok || v != 31102 {
		t.Fatalf("Get() = %d, %v", v, ok)
	}

	clock.Advance(30 * time.Second)
	c.Set("WEB", 31098)
	clock.Advance(30 * time.Second)

	if _, ok := c.Get("KJV"); ok {
		t.Error("KJV should have expired")
	}
	if _, ok := c.Get("WEB"); !ok {
		t.Error("WEB should still be fresh")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestGetOrLoad(t *testing.T) {
	c, clock := newTest(time.Minute)
	calls := 0
	load := func() (int, error) {
		calls++
		return calls, nil
	}

	for range 3 {
		if v, err := c.GetOrLoad("n", load); err != nil || v != 1 {
			t.Fatalf("GetOrLoad() = %d, %v; want 1", v, err)
		}
	}
	clock.Advance(time.Minute)
	if v, _ := c.GetOrLoad("n", load); v != 2 {
		t.Errorf("GetOrLoad() after expiry = %d, want 2", v)
	}

	boom := stderrors.New("store down")
	if _, err := c.GetOrLoad("bad", func() (int, error) { return 0, boom }); err != boom {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed loads must not be cached")
	}
}

func TestDeleteInvalidate(t *testing.T) {
	c, _ := newTest(time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Delete() left the entry")
	}
	c.Invalidate()
	if c.Len() != 0 {
		t.Errorf("Len() after Invalidate = %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Minute)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.Set(j, i)
				c.Get(j)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 100 {
		t.Errorf("Len() = %d, want 100", c.Len())
	}
}
