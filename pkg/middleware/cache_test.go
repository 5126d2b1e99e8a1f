package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/artguard/artguard/pkg/cache"
	"github.com/artguard/artguard/pkg/internal/storage/kv"
	"github.com/artguard/artguard/pkg/middleware"
)

// newCachedEngine 构造挂响应缓存的引擎，handler 计数用于断言命中.
func newCachedEngine(t *testing.T, calls *atomic.Int32) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	e := gin.New()
	e.GET("/search", middleware.CacheMiddleware(middleware.CacheConfig{
		Cache:     appcache.NewCache(store),
		TTL:       time.Minute,
		KeyPrefix: "search:",
	}), func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"scans": []string{"a", "b"}})
	})

	return e
}

func doCachedGet(e *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

// 同一 query 的重复请求由缓存层应答，处理器只执行一次.
func TestCacheMiddlewareServesRepeatFromCache(t *testing.T) {
	var calls atomic.Int32

	e := newCachedEngine(t, &calls)

	first := doCachedGet(e, "/search?user_id=u1&query=oil")
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	// 缓存回填是异步的，轮询等待命中；命中请求本身不得触发处理器
	var hit *httptest.ResponseRecorder

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		before := calls.Load()

		w := doCachedGet(e, "/search?user_id=u1&query=oil")
		if w.Header().Get("X-Cache") == "HIT" {
			if got := calls.Load(); got != before {
				t.Fatalf("cache hit still ran the handler (%d -> %d)", before, got)
			}

			hit = w

			break
		}

		time.Sleep(10 * time.Millisecond)
	}

	if hit == nil {
		t.Fatal("response never served from cache")
	}

	if hit.Body.String() != first.Body.String() {
		t.Fatalf("cached body %q != original %q", hit.Body.String(), first.Body.String())
	}

	if hit.Header().Get("ETag") == "" {
		t.Fatal("cached response should carry an ETag")
	}
}

// 不同 query 不共享缓存条目.
func TestCacheMiddlewareKeyIncludesQuery(t *testing.T) {
	var calls atomic.Int32

	e := newCachedEngine(t, &calls)

	doCachedGet(e, "/search?user_id=u1&query=oil")
	doCachedGet(e, "/search?user_id=u1&query=ink")

	if calls.Load() != 2 {
		t.Fatalf("handler ran %d times for distinct queries, want 2", calls.Load())
	}
}

// 条件请求携带匹配 ETag 时返回 304.
func TestCacheMiddlewareConditionalRequest(t *testing.T) {
	var calls atomic.Int32

	e := newCachedEngine(t, &calls)

	doCachedGet(e, "/search?query=oil")

	var etag string

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w := doCachedGet(e, "/search?query=oil")
		if w.Header().Get("X-Cache") == "HIT" {
			etag = w.Header().Get("ETag")
			break
		}

		time.Sleep(10 * time.Millisecond)
	}

	if etag == "" {
		t.Fatal("no cached ETag to revalidate against")
	}

	req := httptest.NewRequest(http.MethodGet, "/search?query=oil", nil)
	req.Header.Set("If-None-Match", etag)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", w.Code)
	}

	if w.Body.Len() != 0 {
		t.Fatalf("304 should carry no body, got %q", w.Body.String())
	}
}
