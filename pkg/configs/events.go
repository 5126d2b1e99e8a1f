package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	Scan    ScanEventsConfig `mapstructure:"scan"`
}

// ScanEventsConfig 针对扫描领域的事件开关。
type ScanEventsConfig struct {
	Stored    bool `mapstructure:"stored"`
	Completed bool `mapstructure:"completed"`
	Deleted   bool `mapstructure:"deleted"`
	Failed    bool `mapstructure:"failed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 扫描领域的事件：默认开启最小必要集
	v.SetDefault("events.scan.stored", true)
	v.SetDefault("events.scan.completed", true)
	v.SetDefault("events.scan.deleted", true)

	// 失败事件量取决于上游质量，默认关闭
	v.SetDefault("events.scan.failed", false)
}
