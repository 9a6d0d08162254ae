package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/studioreel/internal/analytics"
	"github.com/studioreel/internal/config"
	"github.com/studioreel/internal/geo"
	"github.com/studioreel/internal/handler"
	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/logging"
	"github.com/studioreel/internal/router"
	"github.com/studioreel/internal/scheduler"
	"github.com/studioreel/internal/service"
	"github.com/studioreel/internal/store"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)
	gin.SetMode(cfg.GinMode)

	// 初始化远端存储；失败时仅告警，进程以本地缓存继续服务
	remote, err := store.OpenRemote(cfg.RemoteDriver, cfg.RemoteDSN, cfg.RemoteTimeout)
	if err != nil {
		log.Warn().Err(err).Msg("remote store unavailable, running on local cache")
		remote = nil
	}
	if remote != nil {
		if err := remote.Migrate(); err != nil {
			log.Warn().Err(err).Msg("remote migration failed")
		}
	}

	files, err := store.NewFileStore(cfg.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CacheDir).Msg("cache directory unusable")
	}

	bucket := store.NewObjectStore(cfg.BucketBaseURL, cfg.BucketToken)
	media := store.NewMediaCache(cfg.MediaCacheDir)

	users := hybrid.NewCollection[store.User]("users", remote, files)
	videos := hybrid.NewCollection[store.Video]("videos", remote, files)
	galleries := hybrid.NewCollection[store.GalleryItem]("gallery", remote, files)
	faqs := hybrid.NewCollection[store.FAQ]("faqs", remote, files)
	partners := hybrid.NewCollection[store.Partner]("partners", remote, files)
	settings := hybrid.NewCollection[store.SiteSetting]("settings", remote, files)
	sessions := hybrid.NewCollection[store.VisitorSession]("sessions", remote, files)
	views := hybrid.NewCollection[store.VideoView]("views", remote, files)
	rules := hybrid.NewCollection[store.ExclusionRule]("exclusions", remote, files)
	locations := hybrid.NewCollection[store.CachedLocation]("locations", remote, files)

	settingsService := service.NewSettingsService(settings)
	userService := service.NewUserService(users)

	resolver := geo.NewResolver(geo.Options{
		PrimaryBaseURL:  cfg.GeoPrimaryBaseURL,
		FallbackBaseURL: cfg.GeoFallbackBase,
		Locations:       locations,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		resolver.Warm(ctx)
		cancel()
	}

	ingest := analytics.NewIngestor(sessions, views, rules, resolver, settingsService).
		WithSiteHost(cfg.SiteBaseURL)
	aggregator := analytics.NewAggregator(sessions, views, settingsService)

	// 确保超级管理员账号存在
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := userService.Ensure(ctx, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
			log.Warn().Err(err).Msg("ensure root user failed")
		}
		cancel()
	}

	api := handler.NewAPI(handler.Deps{
		Remote:     remote,
		Users:      userService,
		Videos:     service.NewVideoService(videos, bucket, media, cfg.MediaBucket),
		Galleries:  service.NewGalleryService(galleries, bucket, media, cfg.MediaBucket),
		FAQs:       service.NewFAQService(faqs),
		Partners:   service.NewPartnerService(partners, bucket, media, cfg.MediaBucket),
		Settings:   settingsService,
		Exclusions: service.NewExclusionService(rules),
		Ingest:     ingest,
		Aggregator: aggregator,

		FreshWindowDays: cfg.FreshWindowDays,
	})

	cronJobs := scheduler.Start(ingest)
	defer cronJobs.Stop()

	r := router.Setup(api, cfg.SessionSecret)
	log.Info().Str("addr", cfg.ListenAddr).Msg("server starting")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
