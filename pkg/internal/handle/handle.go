// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// queryUser 提取所有权过滤用的 user_id 查询参数.
// 为空表示请求方未声明归属，此时不做所有权过滤.
func queryUser(c *gin.Context) string {
	return strings.TrimSpace(c.Query("user_id"))
}
