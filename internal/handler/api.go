package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/analytics"
	"github.com/studioreel/internal/service"
	"github.com/studioreel/internal/store"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	remote     *store.Remote
	users      *service.UserService
	videos     *service.VideoService
	galleries  *service.GalleryService
	faqs       *service.FAQService
	partners   *service.PartnerService
	settings   *service.SettingsService
	exclusions *service.ExclusionService
	ingest     *analytics.Ingestor
	aggregator *analytics.Aggregator

	freshWindowDays int
}

// Deps lists the services the handler set depends on. Remote may be nil when
// the server runs in cache-only mode.
type Deps struct {
	Remote     *store.Remote
	Users      *service.UserService
	Videos     *service.VideoService
	Galleries  *service.GalleryService
	FAQs       *service.FAQService
	Partners   *service.PartnerService
	Settings   *service.SettingsService
	Exclusions *service.ExclusionService
	Ingest     *analytics.Ingestor
	Aggregator *analytics.Aggregator

	// FreshWindowDays 是分析读取未指定起始日期时的默认回溯窗口。
	FreshWindowDays int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(d Deps) *API {
	return &API{
		remote:     d.Remote,
		users:      d.Users,
		videos:     d.Videos,
		galleries:  d.Galleries,
		faqs:       d.FAQs,
		partners:   d.Partners,
		settings:   d.Settings,
		exclusions: d.Exclusions,
		ingest:     d.Ingest,
		aggregator: d.Aggregator,

		freshWindowDays: d.FreshWindowDays,
	}
}

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。远端存储不可达时
// 仍返回 200：进程依旧能通过本地快照缓存提供服务。
func (a *API) HealthCheck(c *gin.Context) {
	remote := "up"
	if err := a.remote.Ping(c.Request.Context()); err != nil {
		remote = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"remote": remote,
	})
}
