package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/service"
)

type videoPayload struct {
	TitleZH         string `json:"title_zh"`
	TitleEN         string `json:"title_en"`
	DescriptionZH   string `json:"description_zh"`
	DescriptionEN   string `json:"description_en"`
	VideoKey        string `json:"video_key"`
	ThumbKey        string `json:"thumb_key"`
	DurationSeconds int    `json:"duration_seconds"`
	OrderIndex      int    `json:"order_index"`
	IsActive        bool   `json:"is_active"`
}

func (p videoPayload) toInput() service.VideoInput {
	return service.VideoInput{
		TitleZH:         p.TitleZH,
		TitleEN:         p.TitleEN,
		DescriptionZH:   p.DescriptionZH,
		DescriptionEN:   p.DescriptionEN,
		VideoKey:        p.VideoKey,
		ThumbKey:        p.ThumbKey,
		DurationSeconds: p.DurationSeconds,
		OrderIndex:      p.OrderIndex,
		IsActive:        p.IsActive,
	}
}

type reorderPayload struct {
	OrderIndex int `json:"order_index"`
}

// ListVideos returns all videos for admin management.
func (a *API) ListVideos(c *gin.Context) {
	items, err := a.videos.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取视频列表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateVideo creates a new video entry.
func (a *API) CreateVideo(c *gin.Context) {
	var payload videoPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.videos.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVideoTitleEmpty):
			respondError(c, http.StatusBadRequest, "请填写视频标题")
		case errors.Is(err, service.ErrVideoKeyMissing):
			respondError(c, http.StatusBadRequest, "请上传视频文件")
		default:
			respondError(c, http.StatusInternalServerError, "创建视频失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "视频已创建", "item": item})
}

// UpdateVideo updates an existing video entry.
func (a *API) UpdateVideo(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的视频ID")
		return
	}

	var payload videoPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.videos.Update(c.Request.Context(), id, payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			respondError(c, http.StatusNotFound, "视频不存在")
		case errors.Is(err, service.ErrVideoTitleEmpty):
			respondError(c, http.StatusBadRequest, "请填写视频标题")
		case errors.Is(err, service.ErrVideoKeyMissing):
			respondError(c, http.StatusBadRequest, "请上传视频文件")
		default:
			respondError(c, http.StatusInternalServerError, "更新视频失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "视频已更新", "item": item})
}

// DeleteVideo removes a video entry together with its stored media.
func (a *API) DeleteVideo(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的视频ID")
		return
	}

	if err := a.videos.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			respondError(c, http.StatusNotFound, "视频不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除视频失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "视频已删除"})
}

// ReorderVideo moves a video to a new display position.
func (a *API) ReorderVideo(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的视频ID")
		return
	}

	var payload reorderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.videos.Reorder(c.Request.Context(), id, payload.OrderIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			respondError(c, http.StatusNotFound, "视频不存在")
		default:
			respondError(c, http.StatusInternalServerError, "调整视频顺序失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "顺序已调整", "item": item})
}
