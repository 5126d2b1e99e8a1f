package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/service"
	"github.com/artguard/artguard/pkg/internal/types"
	"github.com/artguard/artguard/pkg/log"
)

// msgRecordNotFound 对外的 404 文案，属于 API 契约.
const msgRecordNotFound = "Scan record not found or access denied"

// GetScanHistory 分页返回用户的扫描历史.
//
//	@Summary		扫描历史
//	@Description	按创建时间倒序分页返回用户的扫描记录；limit 上限 100，越界 offset 返回空页.
//	@Tags			扫描记录
//	@Produce		json
//	@Param			user_id	query		string						true	"用户标识"
//	@Param			limit	query		int							false	"每页条数，默认 50，上限 100"
//	@Param			offset	query		int							false	"偏移量，默认 0"
//	@Success		200		{object}	types.ScanHistoryResponse	"历史列表"
//	@Failure		400		{object}	map[string]string			"缺 user_id 或 limit/offset 非整数"
//	@Router			/scan-history [get]
func GetScanHistory(c *gin.Context) {
	l := log.Logger()

	user := queryUser(c)
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id parameter is required"})
		return
	}

	limit, offset, ok := parseLimitOffset(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit or offset parameter"})
		return
	}

	svc := service.NewScanService(c.Request.Context())

	resp, err := svc.ListRecords(c.Request.Context(), user, limit, offset)
	if err != nil {
		l.Error().Err(err).Str("user", user).Msg("scan history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scan history"})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// parseLimitOffset 解析分页参数，任一参数非整数返回 false.
func parseLimitOffset(c *gin.Context) (limit, offset int, ok bool) {
	limit = service.DefaultHistoryLimit
	offset = 0

	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}

		limit = v
	}

	if s := c.Query("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}

		offset = v
	}

	return limit, offset, true
}

// GetScan 返回单条扫描记录.
//
//	@Summary		单条扫描记录
//	@Description	按 ID 返回记录；user_id 给定时校验归属，不存在与他人记录统一 404.
//	@Tags			扫描记录
//	@Produce		json
//	@Param			id		path		string				true	"记录 ID"
//	@Param			user_id	query		string				false	"归属用户"
//	@Success		200		{object}	types.ScanResponse	"记录"
//	@Failure		404		{object}	map[string]string	"不存在或无权访问"
//	@Router			/scan/{id} [get]
func GetScan(c *gin.Context) {
	l := log.Logger()

	scanID := c.Param("id")
	user := queryUser(c)

	svc := service.NewScanService(c.Request.Context())

	rec, err := svc.GetRecord(c.Request.Context(), scanID, user)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgRecordNotFound})
			return
		}

		l.Error().Err(err).Str("scan_id", scanID).Msg("scan query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scan history"})

		return
	}

	c.JSON(http.StatusOK, types.ScanResponse{Scan: *rec})
}

// UpdateScan 对记录做部分字段更新.
//
//	@Summary		更新扫描记录
//	@Description	接受 {scan_id, updates, user_id?}，不可变字段的补丁被静默忽略.
//	@Tags			扫描记录
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.UpdateScanRequest		true	"更新请求"
//	@Success		200		{object}	types.UpdateScanResponse	"更新后的记录"
//	@Failure		400		{object}	map[string]string			"JSON 非法或缺必填字段"
//	@Failure		404		{object}	map[string]string			"不存在或无权访问"
//	@Router			/scan/update [put]
func UpdateScan(c *gin.Context) {
	l := log.Logger()

	// updates 必须是对象，先按原始 JSON 结构校验
	var body struct {
		ScanID  string          `json:"scan_id"`
		Updates json.RawMessage `json:"updates"`
		UserID  string          `json:"user_id"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in request body"})
		return
	}

	if body.ScanID == "" || len(body.Updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan_id and updates are required"})
		return
	}

	updates := map[string]any{}
	if err := json.Unmarshal(body.Updates, &updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "updates must be an object"})
		return
	}

	svc := service.NewScanService(c.Request.Context())

	rec, err := svc.UpdateRecord(c.Request.Context(), &types.UpdateScanRequest{
		ScanID:  body.ScanID,
		Updates: updates,
		UserID:  strings.TrimSpace(body.UserID),
	})
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgRecordNotFound})
			return
		}

		l.Error().Err(err).Str("scan_id", body.ScanID).Msg("scan update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, types.UpdateScanResponse{
		Message: "Scan record updated successfully",
		Scan:    *rec,
	})
}

// DeleteScan 删除单条扫描记录.
//
//	@Summary		删除扫描记录
//	@Description	物理删除；未命中（含他人记录）返回 404.
//	@Tags			扫描记录
//	@Produce		json
//	@Param			scan_id	query		string						true	"记录 ID"
//	@Param			user_id	query		string						false	"归属用户"
//	@Success		200		{object}	types.DeleteScanResponse	"删除结果"
//	@Failure		400		{object}	map[string]string			"缺 scan_id"
//	@Failure		404		{object}	map[string]string			"不存在或无权访问"
//	@Router			/delete-scan [delete]
func DeleteScan(c *gin.Context) {
	l := log.Logger()

	scanID := strings.TrimSpace(c.Query("scan_id"))
	if scanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan_id parameter is required"})
		return
	}

	svc := service.NewScanService(c.Request.Context())

	deleted, err := svc.DeleteRecord(c.Request.Context(), scanID, queryUser(c))
	if err != nil {
		l.Error().Err(err).Str("scan_id", scanID).Msg("scan delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete scan record"})

		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": msgRecordNotFound})
		return
	}

	c.JSON(http.StatusOK, types.DeleteScanResponse{
		Message:   "Scan record deleted successfully",
		DeletedID: scanID,
	})
}

// BatchDeleteScans 批量删除扫描记录.
//
//	@Summary		批量删除
//	@Description	接受 {scan_ids, user_id?}；单次最多处理 100 个 ID，部分成功按成功处理.
//	@Tags			扫描记录
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.BatchDeleteRequest	true	"批量删除请求"
//	@Success		200		{object}	types.BatchDeleteResponse	"删除结果"
//	@Failure		400		{object}	map[string]string			"scan_ids 缺失或不是数组"
//	@Router			/batch-delete [delete]
func BatchDeleteScans(c *gin.Context) {
	l := log.Logger()

	var body struct {
		ScanIDs json.RawMessage `json:"scan_ids"`
		UserID  string          `json:"user_id"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in request body"})
		return
	}

	if len(body.ScanIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan_ids array is required"})
		return
	}

	var scanIDs []string
	if err := json.Unmarshal(body.ScanIDs, &scanIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan_ids must be an array"})
		return
	}

	if len(scanIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan_ids array is required"})
		return
	}

	svc := service.NewScanService(c.Request.Context())

	resp, err := svc.BatchDeleteRecords(c.Request.Context(), &types.BatchDeleteRequest{
		ScanIDs: scanIDs,
		UserID:  strings.TrimSpace(body.UserID),
	})
	if err != nil {
		l.Error().Err(err).Msg("batch delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete scan records"})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchScans 按 artwork_url 子串搜索用户的扫描记录.
//
//	@Summary		搜索扫描记录
//	@Description	大小写不敏感的子串匹配；无匹配返回空列表. 结果经 KV 做短 TTL 缓存.
//	@Tags			扫描记录
//	@Produce		json
//	@Param			user_id	query		string					true	"用户标识"
//	@Param			query	query		string					true	"匹配子串"
//	@Param			limit	query		int						false	"返回条数，默认 20"
//	@Success		200		{object}	types.SearchResponse	"搜索结果"
//	@Failure		400		{object}	map[string]string		"缺必填参数或 limit 非整数"
//	@Router			/search [get]
func SearchScans(c *gin.Context) {
	l := log.Logger()

	user := queryUser(c)
	query := strings.TrimSpace(c.Query("query"))

	if user == "" || query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and query parameters are required"})
		return
	}

	limit := service.DefaultSearchLimit

	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}

		limit = v
	}

	// 响应缓存由路由层中间件负责，处理器只管查询
	svc := service.NewScanService(c.Request.Context())

	resp, err := svc.SearchRecords(c.Request.Context(), user, query, limit)
	if err != nil {
		l.Error().Err(err).Str("user", user).Msg("scan search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search scan history"})

		return
	}

	c.JSON(http.StatusOK, resp)
}
