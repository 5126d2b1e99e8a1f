package router

import (
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/artguard/artguard/pkg/cache"
	"github.com/artguard/artguard/pkg/internal/handle"
	"github.com/artguard/artguard/pkg/internal/storage"
	"github.com/artguard/artguard/pkg/middleware"
)

// 查询与统计端点的响应缓存存活时间.
const (
	searchCacheTTL    = 15 * time.Second
	analyticsCacheTTL = 30 * time.Second
)

// RegisterScanRoutes 注册扫描管线与记录管理相关路由.
// mgr 提供 KV 客户端时，统计端点挂响应缓存；否则直连处理器.
func RegisterScanRoutes(g *gin.RouterGroup, mgr *storage.Manager) {
	// 扫描管线
	g.POST("/upload", handle.UploadImage)
	g.POST("/scan/complete", handle.CompleteScan)

	// 记录管理
	g.GET("/scan-history", handle.GetScanHistory)
	g.GET("/scan/:id", handle.GetScan)
	g.PUT("/scan/update", handle.UpdateScan)
	g.DELETE("/delete-scan", handle.DeleteScan)
	g.DELETE("/batch-delete", handle.BatchDeleteScans)

	// 查询与统计，KV 可用时挂响应缓存
	if mgr != nil && mgr.GetKVClient() != nil {
		respCache := appcache.NewCache(mgr.GetKVClient())
		g.GET("/search", middleware.CacheMiddleware(middleware.CacheConfig{
			Cache:     respCache,
			TTL:       searchCacheTTL,
			KeyPrefix: "search:",
		}), handle.SearchScans)
		g.GET("/analytics", middleware.CacheMiddleware(middleware.CacheConfig{
			Cache:     respCache,
			TTL:       analyticsCacheTTL,
			KeyPrefix: "analytics:",
		}), handle.GetAnalytics)
	} else {
		g.GET("/search", handle.SearchScans)
		g.GET("/analytics", handle.GetAnalytics)
	}
}
