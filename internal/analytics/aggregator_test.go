package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

func seedView(t *testing.T, views *Views, v store.VideoView) store.VideoView {
	t.Helper()
	created, err := views.Create(context.Background(), v)
	if err != nil {
		t.Fatalf("failed to seed view: %v", err)
	}
	return created
}

func seedSession(t *testing.T, sessions *Sessions, s store.VisitorSession) store.VisitorSession {
	t.Helper()
	created, err := sessions.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return created
}

func TestBuildPairs(t *testing.T) {
	views := []store.VideoView{
		{SessionID: "a", VideoID: 1, WatchTime: 20, CompletionRate: 40},
		{SessionID: "a", VideoID: 1, WatchTime: 50, CompletionRate: 90},
		{SessionID: "b", VideoID: 1, WatchTime: 30, CompletionRate: 85},
		{SessionID: "b", VideoID: 2, WatchTime: 10, CompletionRate: 20},
	}

	pairs := BuildPairs(views)
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}

	byKey := map[string]PairEngagement{}
	for _, p := range pairs {
		byKey[fmt.Sprintf("%s/%d", p.SessionID, p.VideoID)] = p
	}

	rewatch := byKey["a/1"]
	if rewatch.ViewCount != 2 || !rewatch.IsReWatch {
		t.Fatalf("expected session a to be a re-watch: %+v", rewatch)
	}
	if rewatch.BestCompletionRate != 90 || rewatch.TotalWatchTime != 70 {
		t.Fatalf("expected best 90 / total 70, got %+v", rewatch)
	}
	if rewatch.Engagement != EngagementHigh {
		t.Fatalf("re-watch must be high engagement, got %s", rewatch.Engagement)
	}

	if byKey["b/1"].Engagement != EngagementMedium {
		t.Fatalf("85%% completion must be medium, got %s", byKey["b/1"].Engagement)
	}
	if byKey["b/2"].Engagement != EngagementLow {
		t.Fatalf("20%% completion must be low, got %s", byKey["b/2"].Engagement)
	}
}

func TestEngagement(t *testing.T) {
	env := setupAnalytics(t)
	agg := NewAggregator(env.sessions, env.views, env.threshold)

	// 视频 1：三个观众，其中一人重看两次
	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 1, CompletionRate: 90})
	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 1, CompletionRate: 95})
	seedView(t, env.views, store.VideoView{SessionID: "b", VideoID: 1, CompletionRate: 50})
	seedView(t, env.views, store.VideoView{SessionID: "c", VideoID: 1, CompletionRate: 30})
	// 纯页面浏览不参与互动统计
	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 0})
	// 被标记的流量不参与
	seedView(t, env.views, store.VideoView{SessionID: "x", VideoID: 1, IsBot: true})

	out, err := agg.Engagement(context.Background(), 0, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("failed to aggregate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 video, got %d", len(out))
	}

	v := out[0]
	if v.VideoID != 1 || v.TotalViews != 4 || v.UniqueViewers != 3 || v.ReWatchers != 1 {
		t.Fatalf("unexpected aggregate: %+v", v)
	}
	wantRate := 100.0 / 3.0
	if v.ReWatchRate < wantRate-0.01 || v.ReWatchRate > wantRate+0.01 {
		t.Fatalf("expected re-watch rate ~%.2f, got %v", wantRate, v.ReWatchRate)
	}
	if v.Level != EngagementHigh {
		t.Fatalf("33%% re-watch rate must be high, got %s", v.Level)
	}
	if v.Recommendation == "" {
		t.Fatalf("expected a recommendation")
	}
}

func TestTimeSeries(t *testing.T) {
	env := setupAnalytics(t)
	agg := NewAggregator(env.sessions, env.views, env.threshold)

	day1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	seedSession(t, env.sessions, store.VisitorSession{SessionID: "a", IP: "1.1.1.1", Country: "France", FirstSeenAt: day1, LastSeenAt: day1})
	seedSession(t, env.sessions, store.VisitorSession{SessionID: "b", IP: "2.2.2.2", Country: "Japan", FirstSeenAt: day1, LastSeenAt: day1})
	seedSession(t, env.sessions, store.VisitorSession{SessionID: "c", IP: "3.3.3.3", FirstSeenAt: day3, LastSeenAt: day3})

	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 1, CompletionRate: 90})
	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 1, CompletionRate: 95})

	buckets, err := agg.TimeSeries(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	// 视图记录落在当天，会话分布在 6/1 和 6/3：序列稀疏且按日期排序
	if len(buckets) < 2 {
		t.Fatalf("expected at least 2 buckets, got %d", len(buckets))
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i-1].Date >= buckets[i].Date {
			t.Fatalf("buckets not date-sorted: %v", buckets)
		}
	}

	var first *DayBucket
	for i := range buckets {
		if buckets[i].Date == "2025-06-01" {
			first = &buckets[i]
		}
	}
	if first == nil {
		t.Fatalf("expected a bucket for 2025-06-01")
	}
	if first.Visitors != 2 || first.Countries != 2 {
		t.Fatalf("unexpected first bucket: %+v", first)
	}
}

func TestDashboard(t *testing.T) {
	env := setupAnalytics(t)
	agg := NewAggregator(env.sessions, env.views, env.threshold)
	now := time.Now()

	seedSession(t, env.sessions, store.VisitorSession{SessionID: "a", IP: "1.1.1.1", Country: "France", Language: "zh", Referrer: "https://www.google.com/", FirstSeenAt: now, LastSeenAt: now})
	seedSession(t, env.sessions, store.VisitorSession{SessionID: "b", IP: "2.2.2.2", Country: "France", Language: "en", FirstSeenAt: now, LastSeenAt: now})
	seedSession(t, env.sessions, store.VisitorSession{SessionID: "bot", IsBot: true, FirstSeenAt: now, LastSeenAt: now})
	seedSession(t, env.sessions, store.VisitorSession{SessionID: "test", IsTestData: true, FirstSeenAt: now, LastSeenAt: now})

	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 1, CompletionRate: 90})
	seedView(t, env.views, store.VideoView{SessionID: "b", VideoID: 1, CompletionRate: 10})

	stats, err := agg.Dashboard(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("failed to build dashboard: %v", err)
	}
	if stats.Sessions != 2 || stats.BotSessions != 1 || stats.TestSessions != 1 {
		t.Fatalf("unexpected session counts: %+v", stats)
	}
	if stats.TotalViews != 2 || stats.UniqueViewers != 2 {
		t.Fatalf("unexpected view counts: %+v", stats)
	}
	if len(stats.TopCountries) == 0 || stats.TopCountries[0].Name != "France" || stats.TopCountries[0].Count != 2 {
		t.Fatalf("unexpected top countries: %+v", stats.TopCountries)
	}
	if len(stats.Days) == 0 {
		t.Fatalf("expected embedded time series")
	}
}

func TestRecalcThreshold(t *testing.T) {
	env := setupAnalytics(t)
	agg := NewAggregator(env.sessions, env.views, env.threshold)

	seedView(t, env.views, store.VideoView{SessionID: "a", VideoID: 1, CompletionRate: 85, Completed: true})
	seedView(t, env.views, store.VideoView{SessionID: "b", VideoID: 1, CompletionRate: 78, Completed: false})
	seedView(t, env.views, store.VideoView{SessionID: "c", VideoID: 1, CompletionRate: 50, Completed: false})

	// 阈值降到 75：78% 的记录翻转为完成
	result, err := agg.RecalcThreshold(context.Background(), 75)
	if err != nil {
		t.Fatalf("failed to recalc: %v", err)
	}
	if result.Total != 3 || result.Updated != 1 {
		t.Fatalf("expected 1 of 3 updated, got %+v", result)
	}
	if env.threshold.value != 75 {
		t.Fatalf("expected threshold persisted, got %v", env.threshold.value)
	}

	// 相同阈值重算一次：没有记录需要翻转
	result, err = agg.RecalcThreshold(context.Background(), 75)
	if err != nil {
		t.Fatalf("failed to recalc: %v", err)
	}
	if result.Updated != 0 {
		t.Fatalf("expected idempotent recalc, got %+v", result)
	}

	views, err := env.views.List(context.Background(), hybrid.ListOptions[store.VideoView]{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	for _, v := range views {
		if want := v.CompletionRate >= 75; v.Completed != want {
			t.Fatalf("view %s inconsistent after recalc: %+v", v.SessionID, v)
		}
	}
}

func TestRecalcThresholdValidation(t *testing.T) {
	env := setupAnalytics(t)
	agg := NewAggregator(env.sessions, env.views, env.threshold)

	for _, bad := range []float64{0, -5, 101} {
		if _, err := agg.RecalcThreshold(context.Background(), bad); !errors.Is(err, hybrid.ErrValidation) {
			t.Fatalf("threshold %v: expected ErrValidation, got %v", bad, err)
		}
	}
}
