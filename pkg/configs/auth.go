package configs

import "github.com/spf13/viper"

// AuthConfig 控制 API Key 认证（校验请求头中的密钥并记录调用量）。
type AuthConfig struct {
	Enabled   bool     `mapstructure:"enabled"`    // 开启认证校验
	Header    string   `mapstructure:"header"`     // 携带 API Key 的请求头名称
	SkipPaths []string `mapstructure:"skip_paths"` // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
	LogUsage  bool     `mapstructure:"log_usage"`  // 每次调用写入一条使用日志
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.header", "X-API-Key")
	v.SetDefault("auth.log_usage", true)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
	})
}
