package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/studioreel/internal/store"
)

// PublicVideos returns active videos for the public site, with the selected
// language's description rendered to sanitized HTML.
func (a *API) PublicVideos(c *gin.Context) {
	lang := requestLang(c)
	items, err := a.videos.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取视频列表失败")
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		v := &items[i]
		rendered, err := a.videos.RenderDescription(v, lang)
		if err != nil {
			log.Warn().Err(err).Uint("video_id", v.ID).Msg("render video description failed")
			rendered = ""
		}
		out = append(out, gin.H{
			"id":               v.ID,
			"title":            pickLang(lang, v.TitleZH, v.TitleEN),
			"description_html": rendered,
			"video_key":        v.VideoKey,
			"thumb_key":        v.ThumbKey,
			"duration_seconds": v.DurationSeconds,
			"order_index":      v.OrderIndex,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// PublicGallery returns active gallery items for the public site.
func (a *API) PublicGallery(c *gin.Context) {
	lang := requestLang(c)
	items, err := a.galleries.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取作品集失败")
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		g := &items[i]
		out = append(out, gin.H{
			"id":          g.ID,
			"title":       pickLang(lang, g.TitleZH, g.TitleEN),
			"image_key":   g.ImageKey,
			"width":       g.Width,
			"height":      g.Height,
			"order_index": g.OrderIndex,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// PublicFAQs returns active FAQ entries with answers rendered to sanitized
// HTML in the selected language.
func (a *API) PublicFAQs(c *gin.Context) {
	lang := requestLang(c)
	items, err := a.faqs.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取常见问题失败")
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		f := &items[i]
		rendered, err := a.faqs.RenderAnswer(f, lang)
		if err != nil {
			log.Warn().Err(err).Uint("faq_id", f.ID).Msg("render faq answer failed")
			rendered = ""
		}
		out = append(out, gin.H{
			"id":          f.ID,
			"question":    pickLang(lang, f.QuestionZH, f.QuestionEN),
			"answer_html": rendered,
			"order_index": f.OrderIndex,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// PublicPartners returns active partners for the public site.
func (a *API) PublicPartners(c *gin.Context) {
	lang := requestLang(c)
	items, err := a.partners.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取合作伙伴失败")
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		p := &items[i]
		out = append(out, gin.H{
			"id":          p.ID,
			"name":        pickLang(lang, p.NameZH, p.NameEN),
			"logo_key":    p.LogoKey,
			"website_url": p.WebsiteURL,
			"order_index": p.OrderIndex,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// PublicSite returns the public site shell: site name and the call-to-action
// text for the selected language.
func (a *API) PublicSite(c *gin.Context) {
	ctx := c.Request.Context()
	lang := requestLang(c)

	siteName, err := a.settings.Get(ctx, store.SettingKeySiteName)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取站点信息失败")
		return
	}
	ctaZH, ctaEN := a.settings.CTAText(ctx)

	c.JSON(http.StatusOK, gin.H{
		"site_name": siteName,
		"cta_text":  pickLang(lang, ctaZH, ctaEN),
		"lang":      lang,
	})
}

// pickLang 优先取所选语言的文案，为空时回退到另一语言。
func pickLang(lang, zh, en string) string {
	if lang == "en" {
		if en != "" {
			return en
		}
		return zh
	}
	if zh != "" {
		return zh
	}
	return en
}
