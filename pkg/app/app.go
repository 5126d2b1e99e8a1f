// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/artguard/artguard/pkg/api"
	"github.com/artguard/artguard/pkg/configs"
	"github.com/artguard/artguard/pkg/internal/jobs"
	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/storage"
	"github.com/artguard/artguard/pkg/internal/vision"
	"github.com/artguard/artguard/pkg/log"
	"github.com/artguard/artguard/pkg/metrics"
	"github.com/artguard/artguard/pkg/middleware"
	"github.com/artguard/artguard/pkg/scheduler"
	"github.com/artguard/artguard/pkg/tracing"
)

// App 聚合 HTTP 引擎、存储与调度器，生命周期与进程一致.
type App struct {
	Engine *gin.Engine

	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
}

// NewApp 按依赖顺序完成初始化：配置、追踪、监控、存储、
// 分类模型、表结构迁移、定时任务，最后组装中间件链与路由.
// 硬依赖（DB、S3、模型权重）失败会直接退出进程.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	// 分类模型权重为硬依赖，缺失时拒绝启动
	if err := vision.Init(config.Model.WeightsPath); err != nil {
		fmt.Printf("Error loading model weights: %v\n", err)
		os.Exit(1)
	}

	if err := migrate(manager); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	// 定时任务（用量日志清理、滞留扫描清扫）
	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
		middleware.RoleMiddleware(),
		middleware.AuthMiddleware(config.Auth),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
	)

	api.RegisterGroup(engine, manager)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
	}
}

// migrate 同步业务表结构.
func migrate(manager *storage.Manager) error {
	dbClient := manager.GetDBClient()
	if dbClient == nil {
		return fmt.Errorf("database client not initialized")
	}

	return dbClient.AutoMigrate(
		&model.ScanRecord{},
		&model.ApiKey{},
		&model.ApiUsageLog{},
	)
}

// Run 启动HTTP服务并阻塞，直到服务退出.
func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

// Close 释放调度器与存储资源.
func (a *App) Close() error {
	if a.sched != nil {
		_ = a.sched.Shutdown()
	}

	if a.manager != nil {
		return a.manager.Close()
	}

	return nil
}
