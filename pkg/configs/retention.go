package configs

import "github.com/spf13/viper"

const (
	DefaultUsageLogMaxAgeDays    = 90 // 使用日志保留天数
	DefaultStaleUploadTimeoutMin = 60 // uploaded 状态超时分钟数
)

// RetentionConfig 后台清理任务配置.
type RetentionConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	UsageLogMaxAgeDays    int  `mapstructure:"usage_log_max_age_days"    rule:"min=1"`
	StaleUploadTimeoutMin int  `mapstructure:"stale_upload_timeout_min"  rule:"min=1"`
}

func (c *RetentionConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.usage_log_max_age_days", DefaultUsageLogMaxAgeDays)
	v.SetDefault("retention.stale_upload_timeout_min", DefaultStaleUploadTimeoutMin)
}
