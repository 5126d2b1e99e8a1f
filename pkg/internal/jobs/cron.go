// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/artguard/artguard/pkg/configs"
	ctxPkg "github.com/artguard/artguard/pkg/context"
	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/storage"
	"github.com/artguard/artguard/pkg/log"
	"github.com/artguard/artguard/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每天 03:10 清理超过保留期的 API 使用日志
//   - 每 30 分钟将长期停留在 uploaded 状态的扫描记录标记为 failed
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	cfg := configs.GetConfig().Retention
	if !cfg.Enabled {
		log.Logger().Info().Msg("retention jobs disabled")
		return nil
	}

	// 将 storage manager 注入到 context，便于任务使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobUsageLogClean, CronUsageLogClean, func(ctx context.Context) {
		runUsageLogClean(ctx, mgr, cfg.UsageLogMaxAgeDays)
	}, baseCtx)

	_ = sched.AddCron(JobStaleScanSweep, CronStaleScanSweep, func(ctx context.Context) {
		runStaleScanSweep(ctx, mgr, cfg.StaleUploadTimeoutMin)
	}, baseCtx)

	return nil
}

// runUsageLogClean 删除超过保留天数的 API 使用日志.
func runUsageLogClean(ctx context.Context, mgr *storage.Manager, maxAgeDays int) {
	l := log.Logger().With().Str("job", JobUsageLogClean).Logger()

	dbc := mgr.GetDBClient()
	if dbc == nil || dbc.GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)

	res := dbc.GetDB().WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.ApiUsageLog{})
	if res.Error != nil {
		l.Error().Err(res.Error).Msg("usage log clean failed")
		return
	}

	if res.RowsAffected > 0 {
		l.Info().Int64("deleted", res.RowsAffected).Time("before", cutoff).Msg("usage logs cleaned")
	}
}

// runStaleScanSweep 将超时停留在 uploaded 状态的记录标记为 failed.
// 管线写回失败或进程中断都会留下这类半成品记录.
func runStaleScanSweep(ctx context.Context, mgr *storage.Manager, timeoutMin int) {
	l := log.Logger().With().Str("job", JobStaleScanSweep).Logger()

	dbc := mgr.GetDBClient()
	if dbc == nil || dbc.GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	cutoff := time.Now().UTC().Add(-time.Duration(timeoutMin) * time.Minute)

	res := dbc.GetDB().WithContext(ctx).
		Model(&model.ScanRecord{}).
		Where("status = ? AND updated_at < ?", model.ScanStatusUploaded, cutoff).
		Updates(map[string]any{
			"status":     string(model.ScanStatusFailed),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		l.Error().Err(res.Error).Msg("stale scan sweep failed")
		return
	}

	if res.RowsAffected > 0 {
		l.Info().Int64("swept", res.RowsAffected).Time("before", cutoff).Msg("stale uploads marked failed")
	}
}
