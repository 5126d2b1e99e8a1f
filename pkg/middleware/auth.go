package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/artguard/artguard/pkg/configs"
	ctxPkg "github.com/artguard/artguard/pkg/context"
	"github.com/artguard/artguard/pkg/internal/model"
	nlog "github.com/artguard/artguard/pkg/log"
)

// AuthUserKey 认证通过后写入 gin context 的调用方标识键.
const AuthUserKey = "auth_user"

// AuthMiddleware 基于请求头中的 API Key 做统一身份认证校验。
//   - 校验 api_keys 表中存在且启用的密钥，递增调用计数
//   - 支持通过配置跳过某些路径（如 /metrics, /api/v1/health）
//   - 可选每次调用写入一条使用日志（由 configs.auth.log_usage 控制）.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	header := conf.Header
	if header == "" {
		header = "X-API-Key"
	}

	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(header))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
			return
		}

		dbc := ctxPkg.GetDBClient(c.Request.Context())
		if dbc == nil || dbc.DB == nil {
			nlog.Logger().Error().Msg("auth middleware: db client not initialized")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth backend unavailable"})

			return
		}

		apiKey, err := lookupKey(dbc.DB, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or inactive API key"})
			return
		}

		c.Set(AuthUserKey, apiKey.UserID)
		c.Next()

		// 计数与使用日志在请求完成后写入，拿到最终状态码
		touchKey(dbc.DB, apiKey)

		if conf.LogUsage {
			recordUsage(dbc.DB, apiKey.UserID, c)
		}
	}
}

func lookupKey(gdb *gorm.DB, key string) (*model.ApiKey, error) {
	var apiKey model.ApiKey
	if err := gdb.Where("key = ? AND active = ?", key, true).First(&apiKey).Error; err != nil {
		return nil, err
	}

	return &apiKey, nil
}

func touchKey(gdb *gorm.DB, apiKey *model.ApiKey) {
	err := gdb.Model(&model.ApiKey{}).
		Where("id = ?", apiKey.ID).
		Updates(map[string]any{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": time.Now().UTC(),
		}).Error
	if err != nil {
		nlog.Logger().Warn().Err(err).Uint("key_id", apiKey.ID).Msg("api key usage count update failed")
	}
}

func recordUsage(gdb *gorm.DB, userID string, c *gin.Context) {
	row := model.ApiUsageLog{
		UserID:    userID,
		Endpoint:  c.Request.URL.Path,
		Method:    c.Request.Method,
		Status:    c.Writer.Status(),
		IPAddress: c.ClientIP(),
		CreatedAt: time.Now().UTC(),
	}

	if err := gdb.Create(&row).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("user", userID).Msg("api usage log write failed")
	}
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
