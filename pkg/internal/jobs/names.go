package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobUsageLogClean  = "usage_log.clean"
	JobStaleScanSweep = "scan.stale_sweep"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronUsageLogClean  = "10 3 * * *"
	CronStaleScanSweep = "*/30 * * * *"
)
