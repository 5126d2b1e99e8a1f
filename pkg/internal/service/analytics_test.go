package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/artguard/artguard/pkg/internal/model"
)

func TestAnalyticsEmptyWindow(t *testing.T) {
	ss := newTestService(t)

	resp, err := ss.Analytics(context.Background(), "nobody", 30)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	// 空窗口全零，不出现除零
	if resp.TotalScans != 0 || resp.TotalFileSize != 0 || resp.AverageFileSize != 0 || resp.ScansPerDay != 0 {
		t.Fatalf("empty window should be all zero: %+v", resp)
	}

	if resp.PeriodDays != 30 {
		t.Fatalf("period days = %d", resp.PeriodDays)
	}
}

func TestAnalyticsAggregation(t *testing.T) {
	ss := newTestService(t)

	sizes := []int64{1000, 2000, 3000}
	for _, size := range sizes {
		rec := &model.ScanRecord{UserID: "u1", ArtworkURL: "https://cdn.example.com/u1/x.png", FileSize: size}
		if err := ss.CreateRecord(context.Background(), rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// 窗口外的旧记录不计入
	old := &model.ScanRecord{UserID: "u1", ArtworkURL: "https://cdn.example.com/u1/old.png", FileSize: 9999}
	if err := ss.CreateRecord(context.Background(), old); err != nil {
		t.Fatalf("seed old: %v", err)
	}

	stale := time.Now().UTC().AddDate(0, 0, -40)
	if err := ss.dbClient.GetDB().Model(&model.ScanRecord{}).
		Where("id = ?", old.ID).
		Update("created_at", stale).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	resp, err := ss.Analytics(context.Background(), "u1", 30)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if resp.TotalScans != 3 {
		t.Fatalf("total scans = %d, want 3", resp.TotalScans)
	}

	if resp.TotalFileSize != 6000 {
		t.Fatalf("total size = %d, want 6000", resp.TotalFileSize)
	}

	if math.Abs(resp.AverageFileSize-2000) > 1e-9 {
		t.Fatalf("average size = %v, want 2000", resp.AverageFileSize)
	}

	if math.Abs(resp.ScansPerDay-0.1) > 1e-9 {
		t.Fatalf("scans per day = %v, want 0.1", resp.ScansPerDay)
	}
}

func TestAnalyticsDaysClamp(t *testing.T) {
	ss := newTestService(t)

	resp, err := ss.Analytics(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if resp.PeriodDays != DefaultAnalyticsDays {
		t.Fatalf("zero days should default to %d, got %d", DefaultAnalyticsDays, resp.PeriodDays)
	}

	resp, err = ss.Analytics(context.Background(), "u1", 10000)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if resp.PeriodDays != MaxAnalyticsDays {
		t.Fatalf("days should clamp to %d, got %d", MaxAnalyticsDays, resp.PeriodDays)
	}
}
