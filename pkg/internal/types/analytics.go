package types

// AnalyticsResponse 时间窗口内的扫描聚合统计.
// TotalScans 为 0 时，AverageFileSize 与 ScansPerDay 固定为 0，避免除零.
type AnalyticsResponse struct {
	TotalScans      int     `json:"total_scans"`
	TotalFileSize   int64   `json:"total_file_size"`
	AverageFileSize float64 `json:"average_file_size"`
	PeriodDays      int     `json:"period_days"`
	ScansPerDay     float64 `json:"scans_per_day"`
}
