package handle

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/service"
	"github.com/artguard/artguard/pkg/internal/types"
	"github.com/artguard/artguard/pkg/log"
)

// readImageForm 读取 multipart 表单中的图片与附加字段.
// 大小超限在读取前依据表单声明拦截，避免吞入超大请求体.
func readImageForm(c *gin.Context) (*service.UploadInput, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, service.ErrMissingImage
	}

	contentType := fileHeader.Header.Get("Content-Type")

	if err := service.ValidateUpload(contentType, fileHeader.Size); err != nil {
		return nil, err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, service.ErrMissingImage
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadBytes+1))
	if err != nil {
		return nil, service.ErrMissingImage
	}

	if int64(len(data)) > service.MaxUploadBytes {
		return nil, service.ErrFileTooLarge
	}

	// 非文件字段都可选，绑定失败按空值处理
	var form types.UploadForm
	_ = c.ShouldBind(&form)

	return &service.UploadInput{
		UserID:      strings.TrimSpace(form.UserID),
		Description: form.Description,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// uploadStatus 将管线错误映射为 HTTP 状态码.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingImage),
		errors.Is(err, service.ErrInvalidFileType),
		errors.Is(err, service.ErrFileTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UploadImage 上传图片并尽力记录扫描历史，不做分类.
//
//	@Summary		上传艺术品图片
//	@Description	图片入对象存储并写入扫描记录（状态 uploaded）；记录写入失败不影响上传成功，响应带 logged=false 与警告.
//	@Tags			扫描
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image		formData	file					true	"图片文件（JPEG/PNG/GIF/WebP，10MB 以内）"
//	@Param			user_id		formData	string					false	"归属用户，缺省 anonymous"
//	@Param			description	formData	string					false	"扫描描述"
//	@Success		200			{object}	types.UploadResponse	"上传结果"
//	@Failure		400			{object}	map[string]string		"缺图 / 类型不允许 / 超限"
//	@Failure		500			{object}	map[string]string		"对象存储失败"
//	@Router			/upload [post]
func UploadImage(c *gin.Context) {
	l := log.Logger()

	in, err := readImageForm(c)
	if err != nil {
		l.Warn().Err(err).Msg("upload rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewScanService(c.Request.Context())

	resp, err := svc.UploadScan(c.Request.Context(), in)
	if err != nil {
		l.Error().Err(err).Str("user", in.UserID).Msg("upload failed")
		c.JSON(uploadStatus(err), gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompleteScan 上传图片并执行完整分类管线.
//
//	@Summary		完整扫描
//	@Description	图片入对象存储、分类并写入扫描记录（状态 completed）；分类失败返回 500，记录写入失败降级为 logged=false.
//	@Tags			扫描
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image		formData	file						true	"图片文件（JPEG/PNG/GIF/WebP，10MB 以内）"
//	@Param			user_id		formData	string						false	"归属用户，缺省 anonymous"
//	@Param			description	formData	string						false	"扫描描述"
//	@Success		200			{object}	types.CompleteScanResponse	"分类结果"
//	@Failure		400			{object}	map[string]string			"缺图 / 类型不允许 / 超限"
//	@Failure		500			{object}	map[string]string			"对象存储或分类失败"
//	@Router			/scan/complete [post]
func CompleteScan(c *gin.Context) {
	l := log.Logger()

	in, err := readImageForm(c)
	if err != nil {
		l.Warn().Err(err).Msg("scan rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewScanService(c.Request.Context())

	resp, err := svc.CompleteScan(c.Request.Context(), in)
	if err != nil {
		l.Error().Err(err).Str("user", in.UserID).Msg("complete scan failed")
		c.JSON(uploadStatus(err), gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}
