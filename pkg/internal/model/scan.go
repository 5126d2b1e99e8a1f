package model

import (
	"time"
)

// ScanStatus 扫描记录生命周期状态.
type ScanStatus string

const (
	ScanStatusUploaded  ScanStatus = "uploaded"  // 图片已入库，分类结果未写回
	ScanStatusCompleted ScanStatus = "completed" // 分类结果已写回
	ScanStatusFailed    ScanStatus = "failed"    // 分类结果无法写回
)

// Label 分类标签枚举.
type Label string

const (
	LabelHandmade    Label = "Handmade"
	LabelAIGenerated Label = "AIGenerated"
	LabelPrint       Label = "Print"
	LabelUnknown     Label = "Unknown"
)

// ScanRecord 扫描记录模型. 一次图片上传对应至多一条记录，
// 删除为物理删除，不保留墓碑.
type ScanRecord struct {
	// ULID，创建时分配，不可变
	ID string `gorm:"primaryKey;size:26" json:"id"`
	// 提交用户标识，创建时设置，不可变；所有权过滤依赖此字段
	UserID string `gorm:"size:255;index" json:"user_id"`
	// 制品在对象存储中的访问 URL 与对象键
	ArtworkURL string `gorm:"size:1024;index" json:"artwork_url"`
	PublicID   string `gorm:"size:512"        json:"public_id"`
	FileName   string `gorm:"size:512"        json:"file_name"`
	// 分类结果
	Label      string  `gorm:"size:32;index" json:"label"`
	Confidence float64 `gorm:""              json:"confidence"`
	// 制品元数据
	FileSize    int64  `gorm:""           json:"file_size"`
	ContentType string `gorm:"size:128"   json:"content_type"`
	Description string `gorm:"type:text"  json:"description"`
	// 处理状态
	Status string `gorm:"size:16;index" json:"status"`
	// 开放元数据以 JSON 字符串形式存储；未来可替换为 JSONB
	MetadataJSON string `gorm:"type:text" json:"metadata_json,omitempty"`
	// 审计
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名.
func (ScanRecord) TableName() string { return "scan_records" }
