package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/hybrid"
)

// analyticsWindow applies the default freshness window when the caller did
// not pin a start date.
func (a *API) analyticsWindow(c *gin.Context) (from, to time.Time, err error) {
	from, to, err = parseDateRange(c)
	if err != nil {
		return
	}
	if from.IsZero() && a.freshWindowDays > 0 {
		from = time.Now().UTC().AddDate(0, 0, -a.freshWindowDays)
	}
	return
}

// Dashboard 返回后台总览统计。
func (a *API) Dashboard(c *gin.Context) {
	from, to, err := a.analyticsWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := a.aggregator.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取统计数据失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Engagement 返回按视频聚合的互动深度指标。video_id 为 0 或缺省时返回全部
// 视频。
func (a *API) Engagement(c *gin.Context) {
	from, to, err := a.analyticsWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var videoID uint
	if raw := c.Query("video_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的视频ID")
			return
		}
		videoID = uint(parsed)
	}

	items, err := a.aggregator.Engagement(c.Request.Context(), videoID, from, to)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取互动数据失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// TimeSeries 返回按天分桶的访问与观看序列。
func (a *API) TimeSeries(c *gin.Context) {
	from, to, err := a.analyticsWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := a.aggregator.TimeSeries(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取时间序列失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": buckets})
}

type thresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

// RecalcThreshold 调整完成度阈值并重算全部历史观看记录的 Completed 标记。
func (a *API) RecalcThreshold(c *gin.Context) {
	var payload thresholdRequest
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	result, err := a.aggregator.RecalcThreshold(c.Request.Context(), payload.Threshold)
	if err != nil {
		if errors.Is(err, hybrid.ErrValidation) {
			respondError(c, http.StatusBadRequest, "阈值必须在 1 到 100 之间")
			return
		}
		respondError(c, http.StatusInternalServerError, "重算完成度失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "完成度阈值已更新",
		"updated": result.Updated,
		"total":   result.Total,
	})
}

// PurgeTestData 删除被标记为机器人或测试流量的会话与观看记录。
func (a *API) PurgeTestData(c *gin.Context) {
	sessions, views, err := a.ingest.PurgeTestData(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "清理测试数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "测试数据已清理",
		"sessions": sessions,
		"views":    views,
	})
}

// BackfillLocations 为缺少地理信息的历史会话手动触发一次批量回填。
func (a *API) BackfillLocations(c *gin.Context) {
	report, err := a.ingest.BackfillLocations(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "回填地理信息失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "回填完成",
		"total":        report.Total,
		"resolved":     report.Resolved,
		"success_rate": report.SuccessRate(),
	})
}
