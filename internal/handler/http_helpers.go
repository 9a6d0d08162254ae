package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseDateRange 解析 date_from / date_to 查询参数（YYYY-MM-DD）。缺省时返回
// 零值，表示该侧不限。date_to 取当天末尾，保证整天包含在窗口内。
func parseDateRange(c *gin.Context) (from, to time.Time, err error) {
	const layout = "2006-01-02"

	if raw := strings.TrimSpace(c.Query("date_from")); raw != "" {
		from, err = time.ParseInLocation(layout, raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date_from")
		}
	}
	if raw := strings.TrimSpace(c.Query("date_to")); raw != "" {
		to, err = time.ParseInLocation(layout, raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date_to")
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

// requestLang 规范化语言参数，默认中文。
func requestLang(c *gin.Context) string {
	lang := strings.ToLower(strings.TrimSpace(c.DefaultQuery("lang", "zh")))
	if lang != "en" {
		lang = "zh"
	}
	return lang
}
