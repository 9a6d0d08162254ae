// Package scheduler runs the periodic background jobs of the analytics
// pipeline.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/studioreel/internal/analytics"
)

// Start schedules the nightly geolocation backfill and returns the running
// cron instance so the caller can stop it on shutdown.
func Start(ingest *analytics.Ingestor) *cron.Cron {
	c := cron.New()

	// 每天凌晨 3 点回填缺少地理信息的历史会话
	c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		report, err := ingest.BackfillLocations(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("geo backfill failed")
			return
		}
		log.Info().
			Int("total", report.Total).
			Int("resolved", report.Resolved).
			Float64("success_rate", report.SuccessRate()).
			Msg("geo backfill completed")
	})

	c.Start()
	return c
}
