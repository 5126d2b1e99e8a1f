// Package types 定义请求与响应的数据结构.
package types

import "github.com/artguard/artguard/pkg/internal/model"

// Pagination 分页信息.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalCount int `json:"total_count"`
}

// ScanHistoryResponse 扫描历史列表响应.
type ScanHistoryResponse struct {
	Scans      []model.ScanRecord `json:"scans"`
	Pagination Pagination         `json:"pagination"`
}

// ScanResponse 单条扫描记录响应.
type ScanResponse struct {
	Scan model.ScanRecord `json:"scan"`
}

// UpdateScanRequest 更新扫描记录请求.
// Updates 为部分字段补丁；id、user_id、created_at 不可变，出现时被忽略.
type UpdateScanRequest struct {
	ScanID  string         `json:"scan_id" rule:"required"`
	Updates map[string]any `json:"updates" rule:"required"`
	UserID  string         `json:"user_id,omitempty"`
}

// UpdateScanResponse 更新扫描记录响应.
type UpdateScanResponse struct {
	Message string           `json:"message"`
	Scan    model.ScanRecord `json:"scan"`
}

// DeleteScanResponse 删除单条记录响应.
type DeleteScanResponse struct {
	Message   string `json:"message"`
	DeletedID string `json:"deleted_id"`
}

// BatchDeleteRequest 批量删除请求.
type BatchDeleteRequest struct {
	ScanIDs []string `json:"scan_ids" rule:"required,min=1"`
	UserID  string   `json:"user_id,omitempty"`
}

// BatchDeleteResponse 批量删除响应. 部分成功按成功处理，只报告实际删除数.
type BatchDeleteResponse struct {
	Message      string   `json:"message"`
	DeletedCount int      `json:"deleted_count"`
	DeletedIDs   []string `json:"deleted_ids"`
}

// SearchResponse 搜索响应.
type SearchResponse struct {
	Results     []model.ScanRecord `json:"results"`
	Query       string             `json:"query"`
	ResultCount int                `json:"result_count"`
}
