// Package router 管理路由配置，用于设置HTTP服务的路由规则.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/storage"
	"github.com/artguard/artguard/pkg/middleware"
)

// RegisterAll 将全部业务路由绑定到传入的路由组.
// router 包只负责将路径和处理器绑定到 gin 引擎，
// 处理器的实现由 pkg/internal/handle 提供.
func RegisterAll(g *gin.RouterGroup, mgr *storage.Manager) {
	RegisterScanRoutes(g, mgr)
	RegisterHealthCheckRoute(g)

	// 调度器管理端点仅对 admin 开放
	admin := g.Group("")
	admin.Use(middleware.RequireMinRole(middleware.RoleAdmin))
	RegisterSchedulerRoutes(admin)
}
