package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"github.com/artguard/artguard/pkg/configs"
	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/types"
	nlog "github.com/artguard/artguard/pkg/log"
	"github.com/artguard/artguard/pkg/queue"
)

// ErrInvalidRecord 缺少归属用户或制品地址的记录拒绝入库.
var ErrInvalidRecord = errors.New("scan record requires user_id and artwork_url")

// CreateRecord 新建一条扫描记录. ID 为空时分配 ULID，时间戳由服务端填充.
func (ss *ScanService) CreateRecord(ctx context.Context, rec *model.ScanRecord) error {
	if rec.UserID == "" || rec.ArtworkURL == "" {
		return ErrInvalidRecord
	}

	now := time.Now().UTC()

	if rec.ID == "" {
		rec.ID = newScanID(now)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now

	if rec.Status == "" {
		rec.Status = string(model.ScanStatusUploaded)
	}

	if rec.Label == "" {
		rec.Label = string(model.LabelUnknown)
	}

	dbx := ss.dbClient.GetDB().WithContext(ctx)
	if err := dbx.Create(rec).Error; err != nil {
		return fmt.Errorf("create scan record: %w", err)
	}

	return nil
}

// GetRecord 按 ID 获取单条记录. userID 非空时附加所有权过滤，
// 不存在与不属于请求方统一返回 ErrRecordNotFound.
func (ss *ScanService) GetRecord(ctx context.Context, scanID, userID string) (*model.ScanRecord, error) {
	dbx := ss.dbClient.GetDB().WithContext(ctx)

	q := dbx.Where("id = ?", scanID)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var rec model.ScanRecord
	if err := q.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}

		return nil, fmt.Errorf("query scan record: %w", err)
	}

	return &rec, nil
}

// ListRecords 按创建时间倒序分页列出用户记录.
// limit 非正则取默认值，超出上限静默截断；offset 越界返回空页而不是错误.
func (ss *ScanService) ListRecords(ctx context.Context, userID string, limit, offset int) (*types.ScanHistoryResponse, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	if offset < 0 {
		offset = 0
	}

	dbx := ss.dbClient.GetDB().WithContext(ctx)

	var total int64
	if err := dbx.Model(&model.ScanRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count scan records: %w", err)
	}

	scans := make([]model.ScanRecord, 0, limit)
	if err := dbx.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("list scan records: %w", err)
	}

	return &types.ScanHistoryResponse{
		Scans: scans,
		Pagination: types.Pagination{
			Limit:      limit,
			Offset:     offset,
			TotalCount: int(total),
		},
	}, nil
}

// SearchRecords 按 artwork_url 做大小写不敏感的子串匹配，创建时间倒序.
// 无匹配返回空列表而不是错误.
func (ss *ScanService) SearchRecords(ctx context.Context, userID, query string, limit int) (*types.SearchResponse, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	dbx := ss.dbClient.GetDB().WithContext(ctx)

	// 转义 LIKE 通配符，保证 query 只做字面子串匹配
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	pattern := "%" + strings.ToLower(escaped) + "%"

	results := make([]model.ScanRecord, 0, limit)
	if err := dbx.Where("user_id = ? AND LOWER(artwork_url) LIKE ?", userID, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("search scan records: %w", err)
	}

	return &types.SearchResponse{
		Results:     results,
		Query:       query,
		ResultCount: len(results),
	}, nil
}

// 补丁中被静默忽略的不可变字段.
var immutableFields = map[string]struct{}{
	"id":         {},
	"scan_id":    {},
	"user_id":    {},
	"created_at": {},
}

// UpdateRecord 对记录做部分字段合并. 不可变字段出现在补丁中时被忽略，
// 未知字段并入 metadata JSON，保持对客户端附加负载的宽容.
func (ss *ScanService) UpdateRecord(ctx context.Context, req *types.UpdateScanRequest) (*model.ScanRecord, error) {
	rec, err := ss.GetRecord(ctx, req.ScanID, req.UserID)
	if err != nil {
		return nil, err
	}

	extra := map[string]any{}
	if rec.MetadataJSON != "" {
		// 既有 metadata 解析失败时按空处理，不阻塞更新
		_ = sonic.Unmarshal([]byte(rec.MetadataJSON), &extra)
	}

	for key, val := range req.Updates {
		if _, skip := immutableFields[key]; skip {
			continue
		}

		switch key {
		case "label":
			if s, ok := val.(string); ok {
				rec.Label = s
			}
		case "confidence":
			if f, ok := val.(float64); ok {
				rec.Confidence = f
			}
		case "description":
			if s, ok := val.(string); ok {
				rec.Description = s
			}
		case "file_name":
			if s, ok := val.(string); ok {
				rec.FileName = s
			}
		case "status":
			if s, ok := val.(string); ok {
				rec.Status = s
			}
		default:
			extra[key] = val
		}
	}

	if len(extra) > 0 {
		buf, mErr := sonic.Marshal(extra)
		if mErr != nil {
			return nil, fmt.Errorf("encode metadata: %w", mErr)
		}

		rec.MetadataJSON = string(buf)
	}

	rec.UpdatedAt = time.Now().UTC()

	dbx := ss.dbClient.GetDB().WithContext(ctx)
	if err := dbx.Save(rec).Error; err != nil {
		return nil, fmt.Errorf("update scan record: %w", err)
	}

	return rec, nil
}

// DeleteRecord 物理删除单条记录. userID 非空时附加所有权过滤，
// 未命中返回 false 而不是错误.
func (ss *ScanService) DeleteRecord(ctx context.Context, scanID, userID string) (bool, error) {
	rec, err := ss.GetRecord(ctx, scanID, userID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}

		return false, err
	}

	dbx := ss.dbClient.GetDB().WithContext(ctx)

	res := dbx.Where("id = ?", scanID).Delete(&model.ScanRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("delete scan record: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return false, nil
	}

	ss.publishScanDeleted(rec, false)

	return true, nil
}

// BatchDeleteRecords 批量物理删除. 超出上限的 ID 静默丢弃，
// 部分成功按成功处理，只报告实际删除的记录.
func (ss *ScanService) BatchDeleteRecords(ctx context.Context, req *types.BatchDeleteRequest) (*types.BatchDeleteResponse, error) {
	ids := req.ScanIDs
	if len(ids) > MaxBatchDeleteIDs {
		ids = ids[:MaxBatchDeleteIDs]
	}

	dbx := ss.dbClient.GetDB().WithContext(ctx)

	// 先查出实际命中的记录，保证响应只包含真正删除的 ID
	q := dbx.Where("id IN ?", ids)
	if req.UserID != "" {
		q = q.Where("user_id = ?", req.UserID)
	}

	var matched []model.ScanRecord
	if err := q.Find(&matched).Error; err != nil {
		return nil, fmt.Errorf("query scan records: %w", err)
	}

	deleted := make([]string, 0, len(matched))

	for i := range matched {
		res := dbx.Where("id = ?", matched[i].ID).Delete(&model.ScanRecord{})
		if res.Error != nil {
			nlog.Logger().Warn().Err(res.Error).Str("scan_id", matched[i].ID).Msg("batch delete: record failed, continuing")
			continue
		}

		if res.RowsAffected > 0 {
			deleted = append(deleted, matched[i].ID)
			ss.publishScanDeleted(&matched[i], true)
		}
	}

	return &types.BatchDeleteResponse{
		Message:      fmt.Sprintf("Successfully deleted %d scan records", len(deleted)),
		DeletedCount: len(deleted),
		DeletedIDs:   deleted,
	}, nil
}

// publishScanDeleted 尽力发布删除事件，MQ 缺失或失败只记日志.
func (ss *ScanService) publishScanDeleted(rec *model.ScanRecord, batch bool) {
	evs := configs.GetConfig().Events
	if ss.mqClient == nil || !evs.Enabled || !evs.Scan.Deleted {
		return
	}

	err := queue.PublishScanDeleted(ss.mqClient.Publisher(), queue.ScanDeletedPayload{
		ScanID:   rec.ID,
		UserID:   rec.UserID,
		PublicID: rec.PublicID,
		Batch:    batch,
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("scan_id", rec.ID).Msg("publish scan deleted event failed")
	}
}
