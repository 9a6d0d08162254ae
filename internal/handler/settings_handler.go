package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/service"
	"github.com/studioreel/internal/store"
)

type siteSettingsRequest struct {
	SiteName  string `json:"siteName"`
	CTATextZH string `json:"ctaTextZh"`
	CTATextEN string `json:"ctaTextEn"`
}

// GetSiteSettings 返回当前站点设置。
func (a *API) GetSiteSettings(c *gin.Context) {
	ctx := c.Request.Context()

	siteName, err := a.settings.Get(ctx, store.SettingKeySiteName)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取站点设置失败")
		return
	}
	ctaZH, ctaEN := a.settings.CTAText(ctx)

	c.JSON(http.StatusOK, gin.H{"settings": gin.H{
		"siteName":            siteName,
		"ctaTextZh":           ctaZH,
		"ctaTextEn":           ctaEN,
		"completionThreshold": a.settings.CompletionThreshold(ctx),
	}})
}

// UpdateSiteSettings 保存站点设置。完成度阈值不在此处修改：它会触发历史
// 数据重算，走独立的分析端点。
func (a *API) UpdateSiteSettings(c *gin.Context) {
	var payload siteSettingsRequest
	if !bindJSON(c, &payload, "请填写完整的站点设置") {
		return
	}

	ctx := c.Request.Context()
	if err := a.settings.Set(ctx, store.SettingKeySiteName, payload.SiteName); err != nil {
		respondError(c, http.StatusInternalServerError, "保存站点设置失败")
		return
	}
	if err := a.settings.SetCTAText(ctx, payload.CTATextZH, payload.CTATextEN); err != nil {
		respondError(c, http.StatusInternalServerError, "保存站点设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "站点设置已保存"})
}

type exclusionPayload struct {
	CIDR       string `json:"cidr"`
	Label      string `json:"label"`
	Active     bool   `json:"active"`
	UAContains string `json:"ua_contains"`
}

// ListExclusionRules returns all exclusion rules.
func (a *API) ListExclusionRules(c *gin.Context) {
	items, err := a.exclusions.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取排除规则失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateExclusionRule creates a new IP exclusion rule.
func (a *API) CreateExclusionRule(c *gin.Context) {
	var payload exclusionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.exclusions.Create(c.Request.Context(), toExclusionInput(payload))
	if err != nil {
		if errors.Is(err, hybrid.ErrValidation) {
			respondError(c, http.StatusBadRequest, "IP 或 CIDR 格式无效")
			return
		}
		respondError(c, http.StatusInternalServerError, "创建排除规则失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "排除规则已创建", "item": item})
}

// UpdateExclusionRule updates an exclusion rule.
func (a *API) UpdateExclusionRule(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的规则ID")
		return
	}

	var payload exclusionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.exclusions.Update(c.Request.Context(), id, toExclusionInput(payload))
	if err != nil {
		switch {
		case errors.Is(err, hybrid.ErrValidation):
			respondError(c, http.StatusBadRequest, "IP 或 CIDR 格式无效")
		case errors.Is(err, service.ErrRuleNotFound):
			respondError(c, http.StatusNotFound, "排除规则不存在")
		default:
			respondError(c, http.StatusInternalServerError, "更新排除规则失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "排除规则已更新", "item": item})
}

// DeleteExclusionRule removes an exclusion rule.
func (a *API) DeleteExclusionRule(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的规则ID")
		return
	}

	if err := a.exclusions.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrRuleNotFound):
			respondError(c, http.StatusNotFound, "排除规则不存在")
		default:
			respondError(c, http.StatusInternalServerError, "删除排除规则失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "排除规则已删除"})
}

func toExclusionInput(p exclusionPayload) service.ExclusionInput {
	return service.ExclusionInput{
		CIDR:       p.CIDR,
		Label:      p.Label,
		Active:     p.Active,
		UAContains: p.UAContains,
	}
}
