package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/studioreel/internal/analytics"
)

type trackSessionRequest struct {
	Language         string `json:"language"`
	Referrer         string `json:"referrer"`
	PageURL          string `json:"page_url"`
	ScreenResolution string `json:"screen_resolution"`
}

// TrackSession 记录一次新的访客会话。被分类为排除流量的请求静默丢弃，
// 前端无需感知。
func (a *API) TrackSession(c *gin.Context) {
	var payload trackSessionRequest
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	sess, err := a.ingest.RecordSession(c.Request.Context(), analytics.SessionPayload{
		IP:               c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
		Language:         payload.Language,
		Referrer:         payload.Referrer,
		PageURL:          payload.PageURL,
		ScreenResolution: payload.ScreenResolution,
	})
	if err != nil {
		log.Warn().Err(err).Msg("record session failed")
		respondError(c, http.StatusServiceUnavailable, "暂时无法记录会话")
		return
	}
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"recorded": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true, "session_id": sess.SessionID})
}

type trackTouchRequest struct {
	SessionID string `json:"session_id"`
	Duration  int    `json:"duration"`
	PageCount int    `json:"page_count"`
}

// TrackTouch 更新存活会话的停留时长与浏览页数。
func (a *API) TrackTouch(c *gin.Context) {
	var payload trackTouchRequest
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.SessionID == "" {
		respondError(c, http.StatusBadRequest, "缺少会话标识")
		return
	}

	err := a.ingest.TouchSession(c.Request.Context(), payload.SessionID, payload.Duration, payload.PageCount)
	if err != nil {
		if errors.Is(err, analytics.ErrSessionNotFound) {
			respondError(c, http.StatusNotFound, "会话不存在")
			return
		}
		log.Warn().Err(err).Msg("touch session failed")
		respondError(c, http.StatusServiceUnavailable, "暂时无法更新会话")
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

type trackViewRequest struct {
	SessionID      string  `json:"session_id"`
	VideoID        uint    `json:"video_id"`
	WatchTime      int     `json:"watch_time"`
	CompletionRate float64 `json:"completion_rate"`
}

// TrackView 记录一次视频观看或页面浏览事件。video_id 为 0 表示纯页面浏览。
func (a *API) TrackView(c *gin.Context) {
	var payload trackViewRequest
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.SessionID == "" {
		respondError(c, http.StatusBadRequest, "缺少会话标识")
		return
	}

	view, err := a.ingest.RecordView(c.Request.Context(), analytics.ViewPayload{
		SessionID:      payload.SessionID,
		VideoID:        payload.VideoID,
		WatchTime:      payload.WatchTime,
		CompletionRate: payload.CompletionRate,
		IP:             c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("record view failed")
		respondError(c, http.StatusServiceUnavailable, "暂时无法记录观看事件")
		return
	}
	if view == nil {
		c.JSON(http.StatusOK, gin.H{"recorded": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true, "completed": view.Completed})
}
