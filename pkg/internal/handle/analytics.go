package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artguard/artguard/pkg/internal/service"
	"github.com/artguard/artguard/pkg/log"
)

// GetAnalytics 返回时间窗口内的扫描聚合统计.
//
//	@Summary		扫描统计
//	@Description	统计最近 N 天的扫描总数、总大小、平均大小与日频；空窗口全零.
//	@Tags			统计
//	@Produce		json
//	@Param			user_id	query		string					true	"用户标识"
//	@Param			days	query		int						false	"统计窗口天数，默认 30"
//	@Success		200		{object}	types.AnalyticsResponse	"聚合结果"
//	@Failure		400		{object}	map[string]string		"缺 user_id 或 days 非整数"
//	@Router			/analytics [get]
func GetAnalytics(c *gin.Context) {
	l := log.Logger()

	user := queryUser(c)
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id parameter is required"})
		return
	}

	days := service.DefaultAnalyticsDays

	if s := c.Query("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}

		days = v
	}

	svc := service.NewScanService(c.Request.Context())

	resp, err := svc.Analytics(c.Request.Context(), user, days)
	if err != nil {
		l.Error().Err(err).Str("user", user).Msg("analytics query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analytics"})

		return
	}

	c.JSON(http.StatusOK, resp)
}
