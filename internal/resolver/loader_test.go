package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLoaderFetchesAtMostOncePerKey(t *testing.T) {
	var calls int64
	loader := NewLoader(func(ctx context.Context, typeName, localID string) (map[string]any, error) {
		atomic.AddInt64(&calls, 1)
		return map[string]any{"id": localID}, nil
	})

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := loader.ForKey(context.Background(), "Person", "42"); err != nil {
					t.Errorf("ForKey: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("fetch called %d times for one key, want 1", got)
	}
}

func TestLoaderDistinctKeys(t *testing.T) {
	var calls int64
	loader := NewLoader(func(ctx context.Context, typeName, localID string) (map[string]any, error) {
		atomic.AddInt64(&calls, 1)
		return map[string]any{"id": localID}, nil
	})

	for _, id := range []string{"1", "2", "1", "3", "2"} {
		item, err := loader.ForKey(context.Background(), "Person", id)
		if err != nil {
			t.Fatalf("ForKey: %v", err)
		}
		if item["id"] != id {
			t.Fatalf("wrong entity for key %s: %v", id, item)
		}
	}
	if calls != 3 {
		t.Fatalf("fetch called %d times for 3 distinct keys", calls)
	}
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	var calls int64
	loader := NewLoader(func(ctx context.Context, typeName, localID string) (map[string]any, error) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			return nil, context.DeadlineExceeded
		}
		return map[string]any{"id": localID}, nil
	})

	if _, err := loader.ForKey(context.Background(), "Person", "1"); err == nil {
		t.Fatal("first call should fail")
	}
	item, err := loader.ForKey(context.Background(), "Person", "1")
	if err != nil {
		t.Fatalf("retry after error: %v", err)
	}
	if item["id"] != "1" {
		t.Fatalf("unexpected entity: %v", item)
	}
}
