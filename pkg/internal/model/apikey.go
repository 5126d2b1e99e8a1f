package model

import "time"

// ApiKey API 访问密钥. 每个密钥归属一个用户，带调用计数与启用开关.
type ApiKey struct {
	ID     uint   `gorm:"primaryKey"              json:"id"`
	UserID string `gorm:"size:255;index"          json:"user_id"`
	Key    string `gorm:"size:64;uniqueIndex"     json:"key"`
	// Active 不带列默认值，建时显式赋值，false 才能原样落库
	Active     bool      `gorm:"index"                   json:"active"`
	UsageCount int64     `gorm:"default:0"               json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// TableName 指定表名.
func (ApiKey) TableName() string { return "api_keys" }

// ApiUsageLog 每次授权调用写入一行使用日志，定期清理.
type ApiUsageLog struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	UserID    string    `gorm:"size:255;index" json:"user_id"`
	Endpoint  string    `gorm:"size:255"       json:"endpoint"`
	Method    string    `gorm:"size:16"        json:"method"`
	Status    int       `gorm:""               json:"status"`
	IPAddress string    `gorm:"size:64"        json:"ip_address"`
	CreatedAt time.Time `gorm:"index"          json:"created_at"`
}

// TableName 指定表名.
func (ApiUsageLog) TableName() string { return "api_usage_logs" }
