package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/artguard/artguard/pkg/configs"
	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/storage"
	"github.com/artguard/artguard/pkg/internal/storage/db"
	"github.com/artguard/artguard/pkg/middleware"
)

// newAuthEngine 构造带内存数据库与认证中间件的测试引擎.
func newAuthEngine(t *testing.T, conf configs.AuthConfig) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 内存库随连接销毁，限制单连接避免连接池打开新的空库
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&model.ApiKey{}, &model.ApiUsageLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mgr := &storage.Manager{DB: &db.Client{DB: gdb}}

	e := gin.New()
	e.Use(middleware.StorageMiddleware(mgr))
	e.Use(middleware.AuthMiddleware(conf))
	e.GET("/api/v1/scan-history", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(middleware.AuthUserKey)})
	})
	e.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return e, gdb
}

func seedKey(t *testing.T, gdb *gorm.DB, userID, key string, active bool) {
	t.Helper()

	row := model.ApiKey{UserID: userID, Key: key, Active: active}
	if err := gdb.Create(&row).Error; err != nil {
		t.Fatalf("seed api key: %v", err)
	}
}

func doAuthRequest(e *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	e, _ := newAuthEngine(t, configs.AuthConfig{Enabled: false})

	w := doAuthRequest(e, "/api/v1/scan-history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthMissingKey(t *testing.T) {
	e, _ := newAuthEngine(t, configs.AuthConfig{Enabled: true})

	w := doAuthRequest(e, "/api/v1/scan-history", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthInactiveKey(t *testing.T) {
	e, gdb := newAuthEngine(t, configs.AuthConfig{Enabled: true})
	seedKey(t, gdb, "user-1", "key-inactive", false)

	w := doAuthRequest(e, "/api/v1/scan-history", "key-inactive")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	// 停用标记必须原样落库，不能被列默认值翻成启用
	var row model.ApiKey
	if err := gdb.Where("key = ?", "key-inactive").First(&row).Error; err != nil {
		t.Fatalf("reload key: %v", err)
	}

	if row.Active {
		t.Fatal("inactive key persisted as active")
	}
}

func TestAuthValidKeyIncrementsUsage(t *testing.T) {
	e, gdb := newAuthEngine(t, configs.AuthConfig{Enabled: true, LogUsage: true})
	seedKey(t, gdb, "user-1", "key-active", true)

	for i := 0; i < 2; i++ {
		w := doAuthRequest(e, "/api/v1/scan-history", "key-active")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	var apiKey model.ApiKey
	if err := gdb.Where("key = ?", "key-active").First(&apiKey).Error; err != nil {
		t.Fatalf("reload key: %v", err)
	}

	if apiKey.UsageCount != 2 {
		t.Fatalf("usage count = %d, want 2", apiKey.UsageCount)
	}

	var logs int64
	if err := gdb.Model(&model.ApiUsageLog{}).Count(&logs).Error; err != nil {
		t.Fatalf("count usage logs: %v", err)
	}

	if logs != 2 {
		t.Fatalf("usage log rows = %d, want 2", logs)
	}
}

func TestAuthSkipPaths(t *testing.T) {
	e, _ := newAuthEngine(t, configs.AuthConfig{
		Enabled:   true,
		SkipPaths: []string{"/api/v1/health"},
	})

	w := doAuthRequest(e, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
