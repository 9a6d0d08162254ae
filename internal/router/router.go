package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/studioreel/internal/handler"
)

// Setup 配置 Gin 引擎和路由。
func Setup(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("studioreel_session", store))

	r.GET("/healthz", api.HealthCheck)

	// 公开内容接口
	public := r.Group("/api")
	{
		public.GET("/site", api.PublicSite)
		public.GET("/videos", api.PublicVideos)
		public.GET("/gallery", api.PublicGallery)
		public.GET("/faqs", api.PublicFAQs)
		public.GET("/partners", api.PublicPartners)

		// 访客行为采集
		track := public.Group("/track")
		{
			track.POST("/session", api.TrackSession)
			track.POST("/touch", api.TrackTouch)
			track.POST("/view", api.TrackView)
		}
	}

	// 后台管理路由
	admin := r.Group("/api/admin")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/me", api.CurrentUser)

			auth.GET("/videos", api.ListVideos)
			auth.POST("/videos", api.CreateVideo)
			auth.PUT("/videos/:id", api.UpdateVideo)
			auth.DELETE("/videos/:id", api.DeleteVideo)
			auth.PUT("/videos/:id/reorder", api.ReorderVideo)

			auth.GET("/gallery", api.ListGalleryItems)
			auth.POST("/gallery", api.CreateGalleryItem)
			auth.PUT("/gallery/:id", api.UpdateGalleryItem)
			auth.DELETE("/gallery/:id", api.DeleteGalleryItem)
			auth.PUT("/gallery/:id/reorder", api.ReorderGalleryItem)

			auth.GET("/faqs", api.ListFAQs)
			auth.POST("/faqs", api.CreateFAQ)
			auth.PUT("/faqs/:id", api.UpdateFAQ)
			auth.DELETE("/faqs/:id", api.DeleteFAQ)
			auth.PUT("/faqs/:id/reorder", api.ReorderFAQ)

			auth.GET("/partners", api.ListPartners)
			auth.POST("/partners", api.CreatePartner)
			auth.PUT("/partners/:id", api.UpdatePartner)
			auth.DELETE("/partners/:id", api.DeletePartner)
			auth.PUT("/partners/:id/reorder", api.ReorderPartner)

			auth.GET("/settings", api.GetSiteSettings)
			auth.PUT("/settings", api.UpdateSiteSettings)

			auth.GET("/exclusions", api.ListExclusionRules)
			auth.POST("/exclusions", api.CreateExclusionRule)
			auth.PUT("/exclusions/:id", api.UpdateExclusionRule)
			auth.DELETE("/exclusions/:id", api.DeleteExclusionRule)

			auth.GET("/analytics/dashboard", api.Dashboard)
			auth.GET("/analytics/engagement", api.Engagement)
			auth.GET("/analytics/timeseries", api.TimeSeries)
			auth.POST("/analytics/threshold", api.RecalcThreshold)
			auth.POST("/analytics/purge", api.PurgeTestData)
			auth.POST("/analytics/backfill", api.BackfillLocations)
		}
	}

	return r
}
