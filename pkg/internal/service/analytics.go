package service

import (
	"context"
	"fmt"
	"time"

	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/types"
)

const (
	// DefaultAnalyticsDays 统计窗口默认天数.
	DefaultAnalyticsDays = 30
	// MaxAnalyticsDays 统计窗口上限，超出时截断.
	MaxAnalyticsDays = 365
)

// Analytics 统计时间窗口内的扫描聚合指标.
// TotalScans 为 0 时平均值与日频固定为 0，不会出现除零.
func (ss *ScanService) Analytics(ctx context.Context, userID string, days int) (*types.AnalyticsResponse, error) {
	if days <= 0 {
		days = DefaultAnalyticsDays
	}

	if days > MaxAnalyticsDays {
		days = MaxAnalyticsDays
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	dbx := ss.dbClient.GetDB().WithContext(ctx)

	// SQLite/MySQL/PG 兼容：COALESCE 避免空窗口 SUM 返回 NULL
	var agg struct {
		Cnt int64 `gorm:"column:cnt"`
		Sum int64 `gorm:"column:sum"`
	}

	if err := dbx.Model(&model.ScanRecord{}).
		Select("COUNT(*) as cnt, COALESCE(SUM(file_size),0) as sum").
		Where("user_id = ? AND created_at >= ?", userID, cutoff).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("aggregate scan records: %w", err)
	}

	resp := &types.AnalyticsResponse{
		TotalScans:    int(agg.Cnt),
		TotalFileSize: agg.Sum,
		PeriodDays:    days,
	}

	if agg.Cnt > 0 {
		resp.AverageFileSize = float64(agg.Sum) / float64(agg.Cnt)
		resp.ScansPerDay = float64(agg.Cnt) / float64(days)
	}

	return resp, nil
}
