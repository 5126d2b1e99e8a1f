package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/artguard/artguard/pkg/cache"
)

const (
	// DefaultMaxBodyBytes 超过该体积的响应不进缓存.
	DefaultMaxBodyBytes = 1 << 20

	defaultCacheTTL = 30 * time.Second

	bypassHeader = "X-Cache-Bypass"
)

// CacheConfig 响应缓存中间件配置.
// 只缓存 GET + 200 的响应，统计类端点适用；写路径不要挂载.
type CacheConfig struct {
	Cache *appcache.Cache // 必须: 业务注入的 Cache 实例
	TTL   time.Duration   // 缓存存活时间，零值取默认 30s

	KeyPrefix    string                  // 缓存键前缀，用于区分端点
	Skipper      func(*gin.Context) bool // 返回 true 跳过缓存
	MaxBodyBytes int                     // 缓存响应体最大字节 (0=默认 1MB)
}

// CacheMiddleware 构造响应缓存中间件. 支持 ETag / If-None-Match 与
// X-Cache 命中标记；缓存读写失败时静默回落到原处理器.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		if bypassCache(c, cfg) {
			c.Next()
			return
		}

		key := cfg.KeyPrefix + cacheKey(c)
		if serveFromCache(c, cfg, key) {
			return
		}

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer, max: cfg.MaxBodyBytes}
		c.Writer = bw
		c.Next()
		storeResponse(c, cfg, key, bw)
	}
}

// responseCacheEntry 序列化存储结构.
type responseCacheEntry struct {
	Status   int               `json:"s"`
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	ETag     string            `json:"e,omitempty"`
	StoredAt int64             `json:"t"` // unix nano, 用于 Age
}

// cacheKey 由方法、路由与排序后的 query 生成稳定键.
func cacheKey(c *gin.Context) string {
	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(':')

	full := c.FullPath()
	if full == "" { // 未匹配路由时使用原始路径
		full = c.Request.URL.Path
	}

	b.WriteString(full)

	if q := c.Request.URL.Query(); len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}

		sort.Strings(keys)
		b.WriteByte('?')

		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(q[k], ","))
		}
	}

	return fmt.Sprintf("rc:%x", xxhash.Sum64String(b.String()))
}

// bodyCaptureWriter 包装响应写入用于捕获 body.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf       bytes.Buffer
	max       int
	truncated bool
}

// Write 捕获响应体, 超出 max 后停止捕获但继续透传.
func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		remain := w.max - w.buf.Len()
		switch {
		case remain <= 0:
			w.truncated = true
		case len(b) > remain:
			w.buf.Write(b[:remain])
			w.truncated = true
		default:
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

// bypassCache 检查是否应跳过缓存.
func bypassCache(c *gin.Context, cfg CacheConfig) bool {
	if cfg.Skipper != nil && cfg.Skipper(c) {
		return true
	}

	if c.Request.Method != http.MethodGet {
		return true
	}

	return c.GetHeader(bypassHeader) != ""
}

// serveFromCache 尝试从缓存提供响应; 成功返回 true.
func serveFromCache(c *gin.Context, cfg CacheConfig, key string) bool {
	entry, err := appcache.Get[responseCacheEntry](c.Request.Context(), cfg.Cache, key)
	if err != nil {
		return false
	}

	h := c.Writer.Header()
	for k, v := range entry.Header {
		h.Set(k, v)
	}

	if entry.ETag != "" {
		h.Set("ETag", entry.ETag)
	}

	age := time.Since(time.Unix(0, entry.StoredAt)).Seconds()
	h.Set("Age", fmt.Sprintf("%.0f", age))
	h.Set("X-Cache", "HIT")

	// 条件请求命中，304 不带响应体
	if entry.ETag != "" && c.GetHeader("If-None-Match") == entry.ETag {
		c.Status(http.StatusNotModified)
		c.Abort()

		return true
	}

	c.Status(entry.Status)
	_, _ = c.Writer.Write(entry.Body)
	c.Abort()

	return true
}

// storeResponse 将成功响应写入缓存，写入在后台进行.
func storeResponse(c *gin.Context, cfg CacheConfig, key string, bw *bodyCaptureWriter) {
	if c.Writer.Status() != http.StatusOK || bw.truncated {
		return
	}

	body := bw.buf.Bytes()
	hdr := make(map[string]string)

	for k, v := range c.Writer.Header() {
		if len(v) > 0 {
			hdr[k] = v[0]
		}
	}

	etag := c.Writer.Header().Get("ETag")
	if etag == "" {
		etag = fmt.Sprintf("\"%x\"", xxhash.Sum64(body))
		c.Writer.Header().Set("ETag", etag)
		hdr["ETag"] = etag
	}

	entry := responseCacheEntry{
		Status:   http.StatusOK,
		Header:   hdr,
		Body:     body,
		ETag:     etag,
		StoredAt: time.Now().UnixNano(),
	}

	go func(ctx context.Context, k string, e responseCacheEntry) {
		_ = appcache.Set(ctx, cfg.Cache, k, e, cfg.TTL)
	}(context.WithoutCancel(c.Request.Context()), key, entry)

	c.Writer.Header().Set("X-Cache", "MISS")
}
