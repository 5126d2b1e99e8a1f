package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/storage/db"
	"github.com/artguard/artguard/pkg/internal/types"
)

// newTestService 构造仅带内存数据库的服务实例，S3/MQ 留空.
func newTestService(t *testing.T) *ScanService {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 内存库随连接销毁，限制单连接避免连接池打开新的空库
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&model.ScanRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &ScanService{dbClient: &db.Client{DB: gdb}}
}

// seedRecords 为指定用户写入 n 条记录，返回按创建顺序的 ID.
func seedRecords(t *testing.T, ss *ScanService, userID string, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)

	for i := 0; i < n; i++ {
		rec := &model.ScanRecord{
			UserID:     userID,
			ArtworkURL: fmt.Sprintf("https://cdn.example.com/%s/art-%03d.png", userID, i),
			PublicID:   fmt.Sprintf("user_uploads/%s/art-%03d", userID, i),
			FileName:   fmt.Sprintf("art-%03d.png", i),
			FileSize:   int64(1000 + i),
		}
		if err := ss.CreateRecord(context.Background(), rec); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}

		ids = append(ids, rec.ID)
	}

	return ids
}

func TestCreateRecordAssignsID(t *testing.T) {
	ss := newTestService(t)

	rec := &model.ScanRecord{UserID: "u1", ArtworkURL: "https://cdn.example.com/u1/a.png"}
	if err := ss.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(rec.ID) != 26 {
		t.Fatalf("id should be a 26-char ULID, got %q", rec.ID)
	}

	if rec.Status != string(model.ScanStatusUploaded) {
		t.Fatalf("default status = %q", rec.Status)
	}

	if rec.Label != string(model.LabelUnknown) {
		t.Fatalf("default label = %q", rec.Label)
	}
}

func TestCreateRecordRejectsIncomplete(t *testing.T) {
	ss := newTestService(t)

	cases := []struct {
		name string
		rec  *model.ScanRecord
	}{
		{"empty", &model.ScanRecord{}},
		{"missing user", &model.ScanRecord{ArtworkURL: "https://cdn.example.com/u1/a.png"}},
		{"missing url", &model.ScanRecord{UserID: "u1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ss.CreateRecord(context.Background(), tc.rec)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("err = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestGetRecordOwnership(t *testing.T) {
	ss := newTestService(t)
	ids := seedRecords(t, ss, "u1", 1)

	// 本人可见
	rec, err := ss.GetRecord(context.Background(), ids[0], "u1")
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}

	if rec.ID != ids[0] {
		t.Fatalf("got wrong record %q", rec.ID)
	}

	// 他人不可见，与不存在同样返回 ErrRecordNotFound
	if _, err := ss.GetRecord(context.Background(), ids[0], "u2"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("cross-owner get should be not-found, got %v", err)
	}

	if _, err := ss.GetRecord(context.Background(), "01AN4Z07BY79KA1307SR9X4MV3", "u1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("absent get should be not-found, got %v", err)
	}

	// 不带 user_id 时不过滤所有权
	if _, err := ss.GetRecord(context.Background(), ids[0], ""); err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
}

func TestListRecordsClampAndOrder(t *testing.T) {
	ss := newTestService(t)
	seedRecords(t, ss, "u1", 5)

	// limit 超上限被静默截断
	resp, err := ss.ListRecords(context.Background(), "u1", 200, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if resp.Pagination.Limit != MaxHistoryLimit {
		t.Fatalf("limit should clamp to %d, got %d", MaxHistoryLimit, resp.Pagination.Limit)
	}

	if resp.Pagination.TotalCount != 5 || len(resp.Scans) != 5 {
		t.Fatalf("total=%d scans=%d, want 5/5", resp.Pagination.TotalCount, len(resp.Scans))
	}

	// 创建时间倒序
	for i := 1; i < len(resp.Scans); i++ {
		if resp.Scans[i].CreatedAt.After(resp.Scans[i-1].CreatedAt) {
			t.Fatalf("scans not ordered by created_at desc at index %d", i)
		}
	}

	// offset 越界返回空页而不是错误
	resp, err = ss.ListRecords(context.Background(), "u1", 10, 10000)
	if err != nil {
		t.Fatalf("list with large offset: %v", err)
	}

	if len(resp.Scans) != 0 {
		t.Fatalf("offset beyond range should return empty page, got %d", len(resp.Scans))
	}

	if resp.Pagination.TotalCount != 5 {
		t.Fatalf("total count should still be 5, got %d", resp.Pagination.TotalCount)
	}
}

func TestListRecordsDefaultLimit(t *testing.T) {
	ss := newTestService(t)
	seedRecords(t, ss, "u1", 2)

	resp, err := ss.ListRecords(context.Background(), "u1", 0, -3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if resp.Pagination.Limit != DefaultHistoryLimit {
		t.Fatalf("default limit = %d, want %d", resp.Pagination.Limit, DefaultHistoryLimit)
	}

	if resp.Pagination.Offset != 0 {
		t.Fatalf("negative offset should normalize to 0, got %d", resp.Pagination.Offset)
	}
}

func TestSearchRecords(t *testing.T) {
	ss := newTestService(t)
	seedRecords(t, ss, "u1", 3)
	seedRecords(t, ss, "u2", 3)

	// 大小写不敏感子串匹配
	resp, err := ss.SearchRecords(context.Background(), "u1", "ART-001", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if resp.ResultCount != 1 || len(resp.Results) != 1 {
		t.Fatalf("result count = %d, want 1", resp.ResultCount)
	}

	if resp.Results[0].UserID != "u1" {
		t.Fatalf("search leaked cross-owner record for user %q", resp.Results[0].UserID)
	}

	if resp.Query != "ART-001" {
		t.Fatalf("query echo = %q", resp.Query)
	}

	// 无匹配返回空列表而不是错误
	resp, err = ss.SearchRecords(context.Background(), "u1", "nonexistent", 0)
	if err != nil {
		t.Fatalf("search no-match: %v", err)
	}

	if resp.ResultCount != 0 {
		t.Fatalf("no-match should return empty, got %d", resp.ResultCount)
	}

	// LIKE 通配符按字面匹配
	resp, err = ss.SearchRecords(context.Background(), "u1", "%", 0)
	if err != nil {
		t.Fatalf("search wildcard: %v", err)
	}

	if resp.ResultCount != 0 {
		t.Fatalf("literal %% should not match anything, got %d", resp.ResultCount)
	}
}

func TestUpdateRecordImmutableFields(t *testing.T) {
	ss := newTestService(t)
	ids := seedRecords(t, ss, "u1", 1)

	req := &types.UpdateScanRequest{
		ScanID: ids[0],
		UserID: "u1",
		Updates: map[string]any{
			"label":      "Handmade",
			"confidence": 0.93,
			"user_id":    "attacker",
			"id":         "new-id",
			"created_at": "2020-01-01T00:00:00Z",
			"curator":    "alice",
		},
	}

	rec, err := ss.UpdateRecord(context.Background(), req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if rec.Label != "Handmade" || rec.Confidence != 0.93 {
		t.Fatalf("patch not applied: label=%q confidence=%v", rec.Label, rec.Confidence)
	}

	if rec.UserID != "u1" || rec.ID != ids[0] {
		t.Fatalf("immutable fields changed: id=%q user=%q", rec.ID, rec.UserID)
	}

	if rec.MetadataJSON == "" {
		t.Fatal("unknown patch keys should merge into metadata")
	}
}

func TestUpdateRecordNotOwned(t *testing.T) {
	ss := newTestService(t)
	ids := seedRecords(t, ss, "u1", 1)

	req := &types.UpdateScanRequest{
		ScanID:  ids[0],
		UserID:  "u2",
		Updates: map[string]any{"label": "Print"},
	}

	if _, err := ss.UpdateRecord(context.Background(), req); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("cross-owner update should be not-found, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	ss := newTestService(t)
	ids := seedRecords(t, ss, "u1", 1)

	// 他人删除未命中，返回 false 而不是错误
	ok, err := ss.DeleteRecord(context.Background(), ids[0], "u2")
	if err != nil {
		t.Fatalf("cross-owner delete: %v", err)
	}

	if ok {
		t.Fatal("cross-owner delete should not match")
	}

	ok, err = ss.DeleteRecord(context.Background(), ids[0], "u1")
	if err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	if !ok {
		t.Fatal("owner delete should match")
	}

	// 物理删除，二次删除未命中
	ok, err = ss.DeleteRecord(context.Background(), ids[0], "u1")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if ok {
		t.Fatal("second delete should not match")
	}
}

func TestBatchDeleteRecords(t *testing.T) {
	ss := newTestService(t)
	mine := seedRecords(t, ss, "u1", 3)
	other := seedRecords(t, ss, "u2", 1)

	req := &types.BatchDeleteRequest{
		ScanIDs: append(append([]string{}, mine...), other[0], "missing-id"),
		UserID:  "u1",
	}

	resp, err := ss.BatchDeleteRecords(context.Background(), req)
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}

	// 他人与不存在的 ID 被跳过，部分成功按成功处理
	if resp.DeletedCount != 3 || len(resp.DeletedIDs) != 3 {
		t.Fatalf("deleted %d (%v), want 3", resp.DeletedCount, resp.DeletedIDs)
	}

	if resp.Message != "Successfully deleted 3 scan records" {
		t.Fatalf("message = %q", resp.Message)
	}

	// 他人记录完好
	if _, err := ss.GetRecord(context.Background(), other[0], "u2"); err != nil {
		t.Fatalf("other owner's record should survive: %v", err)
	}
}

func TestBatchDeleteClampsIDs(t *testing.T) {
	ss := newTestService(t)
	ids := seedRecords(t, ss, "u1", 2)

	// 超出上限的 ID 静默丢弃：前 100 个为填充值，真实 ID 落在界外
	padded := make([]string, 0, MaxBatchDeleteIDs+len(ids))
	for i := 0; i < MaxBatchDeleteIDs; i++ {
		padded = append(padded, fmt.Sprintf("pad-%03d", i))
	}

	padded = append(padded, ids...)

	resp, err := ss.BatchDeleteRecords(context.Background(), &types.BatchDeleteRequest{ScanIDs: padded, UserID: "u1"})
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}

	if resp.DeletedCount != 0 {
		t.Fatalf("ids beyond the cap should be dropped, deleted %d", resp.DeletedCount)
	}

	for _, id := range ids {
		if _, err := ss.GetRecord(context.Background(), id, "u1"); err != nil {
			t.Fatalf("record %s should survive: %v", id, err)
		}
	}
}
