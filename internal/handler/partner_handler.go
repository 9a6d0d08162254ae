package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/service"
)

type partnerPayload struct {
	NameZH     string `json:"name_zh"`
	NameEN     string `json:"name_en"`
	LogoKey    string `json:"logo_key"`
	WebsiteURL string `json:"website_url"`
	OrderIndex int    `json:"order_index"`
	IsActive   bool   `json:"is_active"`
}

func (p partnerPayload) toInput() service.PartnerInput {
	return service.PartnerInput{
		NameZH:     p.NameZH,
		NameEN:     p.NameEN,
		LogoKey:    p.LogoKey,
		WebsiteURL: p.WebsiteURL,
		OrderIndex: p.OrderIndex,
		IsActive:   p.IsActive,
	}
}

// ListPartners returns all partners for admin management.
func (a *API) ListPartners(c *gin.Context) {
	items, err := a.partners.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取合作伙伴失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreatePartner creates a new partner entry.
func (a *API) CreatePartner(c *gin.Context) {
	var payload partnerPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.partners.Create(c.Request.Context(), payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNameMissing):
			respondError(c, http.StatusBadRequest, "请填写合作伙伴名称")
		default:
			respondError(c, http.StatusInternalServerError, "创建合作伙伴失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "合作伙伴已创建", "item": item})
}

// UpdatePartner updates an existing partner entry.
func (a *API) UpdatePartner(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的合作伙伴ID")
		return
	}

	var payload partnerPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.partners.Update(c.Request.Context(), id, payload.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, http.StatusNotFound, "合作伙伴不存在")
		case errors.Is(err, service.ErrPartnerNameMissing):
			respondError(c, http.StatusBadRequest, "请填写合作伙伴名称")
		default:
			respondError(c, http.StatusInternalServerError, "更新合作伙伴失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "合作伙伴已更新", "item": item})
}

// DeletePartner removes a partner entry together with its stored logo.
func (a *API) DeletePartner(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的合作伙伴ID")
		return
	}

	if err := a.partners.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, http.StatusNotFound, "合作伙伴不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除合作伙伴失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "合作伙伴已删除"})
}

// ReorderPartner moves a partner to a new display position.
func (a *API) ReorderPartner(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的合作伙伴ID")
		return
	}

	var payload reorderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.partners.Reorder(c.Request.Context(), id, payload.OrderIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, http.StatusNotFound, "合作伙伴不存在")
		default:
			respondError(c, http.StatusInternalServerError, "调整合作伙伴顺序失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "顺序已调整", "item": item})
}
