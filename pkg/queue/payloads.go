package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 扫描领域 --------------------------

// ArtifactRef 标识对象存储中的图片制品.
type ArtifactRef struct {
	Bucket      string `json:"bucket"`
	ObjectKey   string `json:"object_key"`
	PublicID    string `json:"public_id,omitempty"`
	URL         string `json:"url,omitempty"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// ScanStoredPayload 图片写入对象存储并创建扫描记录后发布.
type ScanStoredPayload struct {
	ScanID   string      `json:"scan_id"`
	UserID   string      `json:"user_id"`
	Artifact ArtifactRef `json:"artifact"`
	FileName string      `json:"file_name,omitempty"`
}

// ScanCompletedPayload 分类结果写回扫描记录后发布.
type ScanCompletedPayload struct {
	ScanID     string  `json:"scan_id"`
	UserID     string  `json:"user_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	URL        string  `json:"url,omitempty"`
}

// ScanDeletedPayload 扫描记录删除后发布，批量删除时每条记录各发布一次.
type ScanDeletedPayload struct {
	ScanID   string `json:"scan_id"`
	UserID   string `json:"user_id"`
	PublicID string `json:"public_id,omitempty"`
	Batch    bool   `json:"batch,omitempty"` // 来自批量删除
}

// ScanFailedPayload 扫描管线失败时发布.
type ScanFailedPayload struct {
	ScanID string `json:"scan_id,omitempty"`
	UserID string `json:"user_id"`
	Stage  string `json:"stage"` // decode / classify / persist
	Reason string `json:"reason,omitempty"`
}

// -------------------------- 调用量领域 --------------------------

// UsageRecordedPayload API Key 调用量记录.
type UsageRecordedPayload struct {
	UserID    string `json:"user_id"`
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method,omitempty"`
	Status    int    `json:"status,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}
