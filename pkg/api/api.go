// Package api 定义API接口，负责将业务路由组挂载到HTTP服务的引擎上.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/router"
	"github.com/artguard/artguard/pkg/internal/storage"
)

// RegisterGroup 注册扫描相关的路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, mgr *storage.Manager) *gin.Engine {
	router.RegisterAll(e.Group("/api/v1"), mgr)
	router.RegisterSwaggerRoute(e)

	return e
}
