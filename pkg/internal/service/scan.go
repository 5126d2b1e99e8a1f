package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid"

	ctxPkg "github.com/artguard/artguard/pkg/context"
	"github.com/artguard/artguard/pkg/internal/storage/db"
	"github.com/artguard/artguard/pkg/internal/storage/mq"
	"github.com/artguard/artguard/pkg/internal/storage/s3"
	nlog "github.com/artguard/artguard/pkg/log"
)

// ErrRecordNotFound 目标记录不存在或不属于请求方.
// 两种情况对外不作区分，避免泄露他人记录的存在性.
var ErrRecordNotFound = errors.New("scan record not found or access denied")

const (
	// DefaultHistoryLimit 历史列表默认每页条数.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit 历史列表每页上限，超出时静默截断.
	MaxHistoryLimit = 100
	// DefaultSearchLimit 搜索默认返回条数.
	DefaultSearchLimit = 20
	// MaxBatchDeleteIDs 批量删除单次处理的 ID 上限，超出部分静默丢弃.
	MaxBatchDeleteIDs = 100
)

// 全局单例的 ULID 熵源，使用单调递增策略，确保同一毫秒内生成的 ULID 具有排序稳定性。
// Monotonic 熵源非并发安全，生成时需持有 ulidMu。
var (
	ulidMu      sync.Mutex
	scanEntropy = ulid.Monotonic(crand.Reader, 0)
)

// newScanID 生成扫描记录主键 ULID.
func newScanID(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), scanEntropy).String()
}

// ScanService 负责扫描记录相关业务逻辑（存储、查询、聚合），不处理 HTTP 细节.
type ScanService struct {
	s3Client *s3.Client
	dbClient *db.Client
	mqClient *mq.Client
}

// NewScanService 从 context 获取依赖实例.
// S3 与 DB 为硬依赖；MQ 允许缺失（降级为不发事件）.
func NewScanService(c context.Context) *ScanService {
	s3c := ctxPkg.GetS3Client(c)
	dbc := ctxPkg.GetDBClient(c)
	mqc := ctxPkg.GetMQClient(c)

	// 为了安全起见，应该直接 panic 而不是返回 nil，依赖此服务就不需要再检查
	if s3c == nil || s3c.Client == nil || dbc == nil || dbc.DB == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &ScanService{
		s3Client: s3c,
		dbClient: dbc,
		mqClient: mqc,
	}
}
