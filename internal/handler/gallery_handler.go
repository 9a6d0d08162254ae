package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/service"
)

type galleryPayload struct {
	TitleZH    string `json:"title_zh"`
	TitleEN    string `json:"title_en"`
	ImageKey   string `json:"image_key"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OrderIndex int    `json:"order_index"`
	IsActive   bool   `json:"is_active"`
}

func (p galleryPayload) toInput() service.GalleryInput {
	return service.GalleryInput{
		TitleZH:    p.TitleZH,
		TitleEN:    p.TitleEN,
		ImageKey:   p.ImageKey,
		Width:      p.Width,
		Height:     p.Height,
		OrderIndex: p.OrderIndex,
		IsActive:   p.IsActive,
	}
}

// ListGalleryItems returns all gallery items for admin management.
func (a *API) ListGalleryItems(c *gin.Context) {
	items, err := a.galleries.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取作品集失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateGalleryItem creates a new gallery item.
func (a *API) CreateGalleryItem(c *gin.Context) {
	var payload galleryPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.galleries.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGalleryImageMissing):
			respondError(c, http.StatusBadRequest, "请上传作品图片")
		default:
			respondError(c, http.StatusInternalServerError, "创建作品失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "作品已创建", "item": item})
}

// UpdateGalleryItem updates an existing gallery item.
func (a *API) UpdateGalleryItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的作品ID")
		return
	}

	var payload galleryPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.galleries.Update(c.Request.Context(), id, payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGalleryNotFound):
			respondError(c, http.StatusNotFound, "作品不存在")
		case errors.Is(err, service.ErrGalleryImageMissing):
			respondError(c, http.StatusBadRequest, "请上传作品图片")
		default:
			respondError(c, http.StatusInternalServerError, "更新作品失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "作品已更新", "item": item})
}

// DeleteGalleryItem removes a gallery item together with its stored image.
func (a *API) DeleteGalleryItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的作品ID")
		return
	}

	if err := a.galleries.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrGalleryNotFound):
			respondError(c, http.StatusNotFound, "作品不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除作品失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "作品已删除"})
}

// ReorderGalleryItem moves a gallery item to a new display position.
func (a *API) ReorderGalleryItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的作品ID")
		return
	}

	var payload reorderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.galleries.Reorder(c.Request.Context(), id, payload.OrderIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGalleryNotFound):
			respondError(c, http.StatusNotFound, "作品不存在")
		default:
			respondError(c, http.StatusInternalServerError, "调整作品顺序失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "顺序已调整", "item": item})
}
