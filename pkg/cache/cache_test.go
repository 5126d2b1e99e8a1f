package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artguard/artguard/pkg/cache"
	"github.com/artguard/artguard/pkg/internal/storage/kv"
)

// scanSummary 测试用的缓存载荷.
type scanSummary struct {
	ScanID     string  `json:"scan_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// newTestCache 用内存 KV 构造缓存实例.
func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("new memory kv: %v", err)
	}

	return cache.NewCache(store)
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.Get[scanSummary](ctx, c, "scan:missing"); err == nil {
		t.Error("expected error for missing key")
	}

	want := scanSummary{ScanID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Label: "Handmade", Confidence: 0.91}

	if err := cache.Set(ctx, c, "scan:"+want.ScanID, want, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get[scanSummary](ctx, c, "scan:"+want.ScanID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, c, "scan:ttl", scanSummary{ScanID: "x"}, 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := cache.Get[scanSummary](ctx, c, "scan:ttl"); err == nil {
		t.Error("expected expired key to be treated as missing")
	}
}

func TestDeleteAndExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, c, "scan:del", scanSummary{ScanID: "d"}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	exists, err := c.Exists(ctx, "scan:del")
	if err != nil || !exists {
		t.Fatalf("exists before delete = %v, %v", exists, err)
	}

	if err := c.Delete(ctx, "scan:del"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	exists, err = c.Exists(ctx, "scan:del")
	if err != nil {
		t.Fatalf("exists after delete: %v", err)
	}

	if exists {
		t.Error("key should not exist after deletion")
	}
}

func TestGetOrSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	getter := func() (scanSummary, error) {
		calls++
		return scanSummary{ScanID: "s1", Label: "Print", Confidence: 0.74}, nil
	}

	first, err := cache.GetOrSet(ctx, c, "scan:s1", getter, 0)
	if err != nil {
		t.Fatalf("first GetOrSet: %v", err)
	}

	second, err := cache.GetOrSet(ctx, c, "scan:s1", getter, 0)
	if err != nil {
		t.Fatalf("second GetOrSet: %v", err)
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}

	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestGetOrSetGetterError(t *testing.T) {
	c := newTestCache(t)

	wantErr := errors.New("backend unavailable")

	_, err := cache.GetOrSet(context.Background(), c, "scan:err", func() (scanSummary, error) {
		return scanSummary{}, wantErr
	}, 0)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

// 并发回源只应触发一次 getter（singleflight 合并）.
func TestGetOrSetConcurrent(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32

	getter := func() (scanSummary, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)

		return scanSummary{ScanID: "hot", Label: "AIGenerated", Confidence: 0.88}, nil
	}

	const workers = 16

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := cache.GetOrSet(ctx, c, "scan:hot", getter, 0); err != nil {
				t.Errorf("GetOrSet: %v", err)
			}
		}()
	}

	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("getter called %d times, want 1", n)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := range 3 {
		key := fmt.Sprintf("scan:clear:%d", i)
		if err := cache.Set(ctx, c, key, scanSummary{ScanID: key}, 0); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	for i := range 3 {
		key := fmt.Sprintf("scan:clear:%d", i)
		if exists, _ := c.Exists(ctx, key); exists {
			t.Errorf("key %s survived Clear", key)
		}
	}
}

func TestGenericTypes(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, c, "labels", []string{"Handmade", "AIGenerated", "Print"}, 0); err != nil {
		t.Fatalf("set slice: %v", err)
	}

	labels, err := cache.Get[[]string](ctx, c, "labels")
	if err != nil {
		t.Fatalf("get slice: %v", err)
	}

	if len(labels) != 3 || labels[1] != "AIGenerated" {
		t.Errorf("labels = %v", labels)
	}

	if err := cache.Set(ctx, c, "count", 42, 0); err != nil {
		t.Fatalf("set int: %v", err)
	}

	n, err := cache.Get[int](ctx, c, "count")
	if err != nil || n != 42 {
		t.Fatalf("get int = %d, %v", n, err)
	}
}
