package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/artguard/artguard/pkg/configs"
	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/types"
	"github.com/artguard/artguard/pkg/internal/vision"
	nlog "github.com/artguard/artguard/pkg/log"
	"github.com/artguard/artguard/pkg/metrics"
	"github.com/artguard/artguard/pkg/queue"
)

// MaxUploadBytes 上传图片大小上限.
const MaxUploadBytes = 10 << 20

// AnonymousUser 未提供 user_id 时的归属标识.
const AnonymousUser = "anonymous"

// 写记录失败时附加在成功响应上的警告文案.
const warnLogFailed = "Failed to log to scan history"

// 校验错误文案属于对外 API 契约，保持原样不做小写规范化.
var (
	ErrMissingImage    = errors.New("No image file provided")
	ErrInvalidFileType = errors.New("Invalid file type. Only JPEG, PNG, GIF, and WebP are allowed")
	ErrFileTooLarge    = errors.New("File size too large. Maximum size is 10MB")
	ErrArtifactStore   = errors.New("Failed to upload image to storage")
	ErrClassify        = errors.New("Failed to classify image")
)

// 上传内容类型白名单.
var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// ValidateUpload 在任何外部调用之前做快速失败校验.
func ValidateUpload(contentType string, size int64) error {
	if size <= 0 {
		return ErrMissingImage
	}

	if _, ok := allowedContentTypes[strings.ToLower(contentType)]; !ok {
		return ErrInvalidFileType
	}

	if size > MaxUploadBytes {
		return ErrFileTooLarge
	}

	return nil
}

// UploadInput 管线入参.
type UploadInput struct {
	UserID      string
	Description string
	FileName    string
	ContentType string
	Data        []byte
}

// artifact 制品入库结果.
type artifact struct {
	ObjectKey string
	URL       string
	FileName  string
}

// UploadScan 仅存储管线：校验、制品入库、尽力写记录（状态 uploaded，不做分类）.
// 记录写入失败不回滚制品，响应降级为 Logged=false 并附警告.
func (ss *ScanService) UploadScan(ctx context.Context, in *UploadInput) (*types.UploadResponse, error) {
	start := time.Now()
	defer func() {
		metrics.ScanDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	}()

	if in.UserID == "" {
		in.UserID = AnonymousUser
	}

	if err := ValidateUpload(in.ContentType, int64(len(in.Data))); err != nil {
		return nil, err
	}

	art, err := ss.storeArtifact(ctx, in)
	if err != nil {
		return nil, err
	}

	resp := &types.UploadResponse{
		URL:      art.URL,
		PublicID: art.ObjectKey,
		Filename: art.FileName,
		UserID:   in.UserID,
		Logged:   true,
	}

	rec := ss.newRecord(in, art)
	if err := ss.CreateRecord(ctx, rec); err != nil {
		nlog.Logger().Error().Err(err).Str("user", in.UserID).Msg("scan record write failed after upload")

		resp.Logged = false
		resp.Warning = warnLogFailed
		ss.publishScanFailed(rec, "persist", err)

		return resp, nil
	}

	resp.ScanID = rec.ID
	metrics.ScanCounter.WithLabelValues(rec.Label, rec.Status).Inc()
	ss.publishScanStored(rec)

	return resp, nil
}

// CompleteScan 完整管线：校验、制品入库、分类、尽力写记录（状态 completed）.
// 分类失败是硬错误；记录写入失败与 UploadScan 同样降级.
func (ss *ScanService) CompleteScan(ctx context.Context, in *UploadInput) (*types.CompleteScanResponse, error) {
	start := time.Now()
	defer func() {
		metrics.ScanDuration.WithLabelValues("complete").Observe(time.Since(start).Seconds())
	}()

	if in.UserID == "" {
		in.UserID = AnonymousUser
	}

	if err := ValidateUpload(in.ContentType, int64(len(in.Data))); err != nil {
		return nil, err
	}

	art, err := ss.storeArtifact(ctx, in)
	if err != nil {
		return nil, err
	}

	tensor, err := vision.Normalize(in.Data)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("user", in.UserID).Msg("image normalization failed")
		return nil, fmt.Errorf("%w: %v", ErrClassify, err)
	}

	pred, err := vision.Default().Classify(tensor)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("user", in.UserID).Msg("classification failed")
		return nil, fmt.Errorf("%w: %v", ErrClassify, err)
	}

	resp := &types.CompleteScanResponse{
		Label:      string(pred.Label),
		Confidence: pred.Confidence,
		URL:        art.URL,
		PublicID:   art.ObjectKey,
		Filename:   art.FileName,
		UserID:     in.UserID,
		Logged:     true,
	}

	rec := ss.newRecord(in, art)
	rec.Status = string(model.ScanStatusCompleted)
	rec.Label = string(pred.Label)
	rec.Confidence = pred.Confidence

	if err := ss.CreateRecord(ctx, rec); err != nil {
		nlog.Logger().Error().Err(err).Str("user", in.UserID).Msg("scan record write failed after classification")

		resp.Logged = false
		resp.Warning = warnLogFailed
		ss.publishScanFailed(rec, "persist", err)

		return resp, nil
	}

	resp.ScanID = rec.ID
	metrics.ScanCounter.WithLabelValues(rec.Label, rec.Status).Inc()
	ss.publishScanCompleted(rec)

	return resp, nil
}

// storeArtifact 将图片写入对象存储，对象键形如 user_uploads/<user_id>/<uuid><ext>.
func (ss *ScanService) storeArtifact(ctx context.Context, in *UploadInput) (*artifact, error) {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	uniqueName := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	objectKey := fmt.Sprintf("user_uploads/%s/%s", in.UserID, uniqueName)

	cfg := ss.s3Client.GetConfig()

	opts := minio.PutObjectOptions{ContentType: in.ContentType}

	_, err := ss.s3Client.PutObject(ctx, cfg.BucketName, objectKey,
		bytes.NewReader(in.Data), int64(len(in.Data)), opts)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("object", objectKey).Msg("artifact store failed")
		return nil, fmt.Errorf("%w: %v", ErrArtifactStore, err)
	}

	return &artifact{
		ObjectKey: objectKey,
		URL:       ss.artifactURL(objectKey),
		FileName:  uniqueName,
	}, nil
}

// artifactURL 构造制品的直链 URL.
func (ss *ScanService) artifactURL(objectKey string) string {
	cfg := ss.s3Client.GetConfig()

	return fmt.Sprintf("%s/%s/%s", ss.s3Client.EndpointURL().String(), cfg.BucketName, objectKey)
}

// newRecord 由上传入参构造记录，分类字段留给调用方填充.
func (ss *ScanService) newRecord(in *UploadInput, art *artifact) *model.ScanRecord {
	return &model.ScanRecord{
		UserID:      in.UserID,
		ArtworkURL:  art.URL,
		PublicID:    art.ObjectKey,
		FileName:    art.FileName,
		FileSize:    int64(len(in.Data)),
		ContentType: in.ContentType,
		Description: in.Description,
		Status:      string(model.ScanStatusUploaded),
	}
}

// ---- 事件发布（尽力而为，受配置开关控制） ----

func (ss *ScanService) publishScanStored(rec *model.ScanRecord) {
	evs := configs.GetConfig().Events
	if ss.mqClient == nil || !evs.Enabled || !evs.Scan.Stored {
		return
	}

	err := queue.PublishScanStored(ss.mqClient.Publisher(), queue.ScanStoredPayload{
		ScanID: rec.ID,
		UserID: rec.UserID,
		Artifact: queue.ArtifactRef{
			PublicID: rec.PublicID,
			URL:      rec.ArtworkURL,
			Size:     rec.FileSize,
		},
		FileName: rec.FileName,
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("scan_id", rec.ID).Msg("publish scan stored event failed")
	}
}

func (ss *ScanService) publishScanCompleted(rec *model.ScanRecord) {
	evs := configs.GetConfig().Events
	if ss.mqClient == nil || !evs.Enabled || !evs.Scan.Completed {
		return
	}

	err := queue.PublishScanCompleted(ss.mqClient.Publisher(), queue.ScanCompletedPayload{
		ScanID:     rec.ID,
		UserID:     rec.UserID,
		Label:      rec.Label,
		Confidence: rec.Confidence,
		URL:        rec.ArtworkURL,
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("scan_id", rec.ID).Msg("publish scan completed event failed")
	}
}

func (ss *ScanService) publishScanFailed(rec *model.ScanRecord, stage string, cause error) {
	evs := configs.GetConfig().Events
	if ss.mqClient == nil || !evs.Enabled || !evs.Scan.Failed {
		return
	}

	err := queue.PublishScanFailed(ss.mqClient.Publisher(), queue.ScanFailedPayload{
		ScanID: rec.ID,
		UserID: rec.UserID,
		Stage:  stage,
		Reason: cause.Error(),
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("scan_id", rec.ID).Msg("publish scan failed event failed")
	}
}
