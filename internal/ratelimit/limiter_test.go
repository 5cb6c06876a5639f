package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testLimiter returns a limiter with a controllable clock.
func testLimiter() (*Limiter, *time.Time) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore())
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheckAdmitsExactlyMaxWithinWindow(t *testing.T) {
	t.Parallel()

	l, now := testLimiter()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d, err := l.Check(ctx, "client-a", 10, time.Minute)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("check %d denied, want allowed", i)
		}
		*now = now.Add(100 * time.Millisecond)
	}

	d, err := l.Check(ctx, "client-a", 10, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Fatal("11th check allowed, want denied")
	}
	if secs := d.RetryAfterSeconds(); secs <= 0 || secs > 60 {
		t.Errorf("RetryAfterSeconds() = %d, want in (0, 60]", secs)
	}
}

func TestCheckWindowSlidesOpenAgain(t *testing.T) {
	t.Parallel()

	l, now := testLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if d, _ := l.Check(ctx, "k", 3, time.Minute); !d.Allowed {
			t.Fatalf("warmup check %d denied", i)
		}
	}
	if d, _ := l.Check(ctx, "k", 3, time.Minute); d.Allowed {
		t.Fatal("4th check within window allowed")
	}

	// Not a permanent lockout: once the window passes, checks succeed.
	*now = now.Add(time.Minute + time.Second)
	d, err := l.Check(ctx, "k", 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatal("check after window elapsed denied")
	}
}

func TestCheckIdentifiersAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := testLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Check(ctx, "noisy", 5, time.Minute)
	}
	if d, _ := l.Check(ctx, "noisy", 5, time.Minute); d.Allowed {
		t.Fatal("noisy identifier should be exhausted")
	}

	d, err := l.Check(ctx, "quiet", 5, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatal("exhausting one identifier denied another")
	}
}

func TestCheckZeroMaxAlwaysDenies(t *testing.T) {
	t.Parallel()

	l, _ := testLimiter()
	d, err := l.Check(context.Background(), "anyone", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Fatal("max=0 admitted a request")
	}
}

func TestRetryAfterApproximatesWindow(t *testing.T) {
	t.Parallel()

	l, now := testLimiter()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		l.Check(ctx, "burst", 10, time.Minute)
	}
	// Immediately after the burst the oldest entry is `now`, so the
	// hint is the full window.
	d, _ := l.Check(ctx, "burst", 10, time.Minute)
	if d.Allowed {
		t.Fatal("expected denial")
	}
	if secs := d.RetryAfterSeconds(); secs != 60 {
		t.Errorf("RetryAfterSeconds() = %d, want 60", secs)
	}

	*now = now.Add(45 * time.Second)
	d, _ = l.Check(ctx, "burst", 10, time.Minute)
	if d.Allowed {
		t.Fatal("expected denial 45s in")
	}
	if secs := d.RetryAfterSeconds(); secs != 15 {
		t.Errorf("RetryAfterSeconds() = %d, want 15", secs)
	}
}

func TestCheckTrimsLazily(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	l := New(store)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	l.Check(ctx, "idle", 10, time.Minute)
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}

	// A later check for the same key empties and drops the window.
	now = now.Add(2 * time.Minute)
	l.Check(ctx, "idle", 10, time.Minute)
	stamps, _ := store.Timestamps(ctx, "idle")
	if len(stamps) != 1 {
		t.Errorf("stale timestamps survived trim: %d", len(stamps))
	}
}

func TestCheckConcurrentSameKey(t *testing.T) {
	t.Parallel()

	l := New(NewMemoryStore())
	ctx := context.Background()

	const max = 10
	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Check(ctx, "contended", max, time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			allowed <- d.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	if count != max {
		t.Errorf("admitted %d concurrent requests, want exactly %d", count, max)
	}
}
