package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

const cleanUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

type memThreshold struct {
	value float64
}

func (m *memThreshold) CompletionThreshold(ctx context.Context) float64 {
	return m.value
}

func (m *memThreshold) SetCompletionThreshold(ctx context.Context, percent float64) error {
	m.value = percent
	return nil
}

type testEnv struct {
	sessions  *Sessions
	views     *Views
	rules     *Rules
	threshold *memThreshold
}

func setupAnalytics(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&store.VisitorSession{}, &store.VideoView{}, &store.ExclusionRule{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	remote := store.NewRemote(gdb, 0)
	files, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	return &testEnv{
		sessions:  hybrid.NewCollection[store.VisitorSession]("sessions", remote, files),
		views:     hybrid.NewCollection[store.VideoView]("views", remote, files),
		rules:     hybrid.NewCollection[store.ExclusionRule]("exclusions", remote, files),
		threshold: &memThreshold{value: 80},
	}
}

func (e *testEnv) ingestor() *Ingestor {
	return NewIngestor(e.sessions, e.views, e.rules, nil, e.threshold)
}

func cleanSession(ip string) SessionPayload {
	return SessionPayload{
		IP:               ip,
		UserAgent:        cleanUA,
		Language:         "zh",
		Referrer:         "https://www.google.com/",
		PageURL:          "https://studioreel.cn/",
		ScreenResolution: "1920x1080",
	}
}

func TestRecordSessionConfiguredSiteHost(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor().WithSiteHost("https://studioreel.cn")

	// dev. 子域属于配置的站点域名，与消费级 UA 一同构成生产证据
	p := cleanSession("203.0.113.9")
	p.Referrer = "http://localhost:3000/"
	p.PageURL = "https://dev.studioreel.cn/preview"
	p.ScreenResolution = "800x600"

	sess, err := in.RecordSession(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to record session: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session to be recorded")
	}
	if sess.IsTestData {
		t.Fatalf("session on the configured site host must not be flagged: %+v", sess)
	}
}

func TestRecordSession(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	sess, err := in.RecordSession(context.Background(), cleanSession("203.0.113.9"))
	if err != nil {
		t.Fatalf("failed to record session: %v", err)
	}
	if sess == nil {
		t.Fatalf("clean traffic must be recorded")
	}
	if sess.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
	if sess.PageCount != 1 {
		t.Fatalf("expected initial page count 1, got %d", sess.PageCount)
	}
	if sess.IsBot || sess.IsTestData || sess.IsReturning {
		t.Fatalf("clean first visit misflagged: %+v", sess)
	}

	// 同一 IP 的第二个会话视为回访
	again, err := in.RecordSession(context.Background(), cleanSession("203.0.113.9"))
	if err != nil {
		t.Fatalf("failed to record second session: %v", err)
	}
	if !again.IsReturning {
		t.Fatalf("expected returning visitor flag")
	}
}

func TestRecordSessionSkipsAdmin(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	p := cleanSession("203.0.113.9")
	p.PageURL = "https://studioreel.cn/admin/dashboard"
	sess, err := in.RecordSession(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess != nil {
		t.Fatalf("admin traffic must not be recorded")
	}

	stored, err := env.sessions.List(context.Background(), hybrid.ListOptions[store.VisitorSession]{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected no stored sessions, got %d", len(stored))
	}
}

func TestRecordSessionExcludedRange(t *testing.T) {
	env := setupAnalytics(t)
	if _, err := env.rules.Create(context.Background(), store.ExclusionRule{
		CIDR: "203.0.113.0/24", Label: "office", Active: true,
	}); err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}

	in := env.ingestor()
	sess, err := in.RecordSession(context.Background(), cleanSession("203.0.113.9"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess != nil {
		t.Fatalf("excluded range must not be recorded")
	}

	// 范围之外照常计数
	sess, err = in.RecordSession(context.Background(), cleanSession("198.51.100.7"))
	if err != nil || sess == nil {
		t.Fatalf("expected non-excluded ip to be recorded, got %v / %v", sess, err)
	}
}

func TestRecordSessionFlagsBots(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	p := cleanSession("203.0.113.9")
	p.UserAgent = "Googlebot/2.1 (+http://www.google.com/bot.html)"
	sess, err := in.RecordSession(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to record bot session: %v", err)
	}
	if sess == nil {
		t.Fatalf("bot traffic is stored flagged, not dropped")
	}
	if !sess.IsBot {
		t.Fatalf("expected bot flag")
	}
}

func TestTouchSessionMonotonic(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	sess, err := in.RecordSession(context.Background(), cleanSession("203.0.113.9"))
	if err != nil {
		t.Fatalf("failed to record session: %v", err)
	}

	if err := in.TouchSession(context.Background(), sess.SessionID, 30, 3); err != nil {
		t.Fatalf("failed to touch: %v", err)
	}
	// 乱序到达的较小值不得回退
	if err := in.TouchSession(context.Background(), sess.SessionID, 10, 2); err != nil {
		t.Fatalf("failed to touch: %v", err)
	}

	got, err := env.sessions.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.Duration != 30 || got.PageCount != 3 {
		t.Fatalf("expected duration 30 / pages 3, got %d / %d", got.Duration, got.PageCount)
	}

	if err := in.TouchSession(context.Background(), "missing-id", 5, 1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRecordViewThreshold(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	cases := []struct {
		rate      float64
		wantRate  float64
		completed bool
	}{
		{85, 85, true},
		{80, 80, true},
		{75, 75, false},
		{150, 100, true},
		{-10, 0, false},
	}
	for _, tc := range cases {
		view, err := in.RecordView(context.Background(), ViewPayload{
			SessionID:      "real-session",
			VideoID:        1,
			WatchTime:      42,
			CompletionRate: tc.rate,
			IP:             "203.0.113.9",
			UserAgent:      cleanUA,
		})
		if err != nil {
			t.Fatalf("failed to record view: %v", err)
		}
		if view.CompletionRate != tc.wantRate {
			t.Fatalf("rate %v: expected clamp to %v, got %v", tc.rate, tc.wantRate, view.CompletionRate)
		}
		if view.Completed != tc.completed {
			t.Fatalf("rate %v: expected completed=%v", tc.rate, tc.completed)
		}
	}
}

func TestRecordViewTestSession(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	view, err := in.RecordView(context.Background(), ViewPayload{
		SessionID:      "test_e2e_run",
		VideoID:        1,
		CompletionRate: 90,
		IP:             "203.0.113.9",
		UserAgent:      cleanUA,
	})
	if err != nil {
		t.Fatalf("failed to record view: %v", err)
	}
	if !view.IsTestData {
		t.Fatalf("expected test session prefix to flag the view")
	}
}

func TestPurgeTestData(t *testing.T) {
	env := setupAnalytics(t)
	in := env.ingestor()

	if _, err := in.RecordSession(context.Background(), cleanSession("203.0.113.9")); err != nil {
		t.Fatalf("failed to record clean session: %v", err)
	}
	bot := cleanSession("203.0.113.10")
	bot.UserAgent = "curl/8.4.0"
	if _, err := in.RecordSession(context.Background(), bot); err != nil {
		t.Fatalf("failed to record bot session: %v", err)
	}
	if _, err := in.RecordView(context.Background(), ViewPayload{
		SessionID: "test_abc", VideoID: 1, CompletionRate: 90, IP: "203.0.113.9", UserAgent: cleanUA,
	}); err != nil {
		t.Fatalf("failed to record test view: %v", err)
	}
	if _, err := in.RecordView(context.Background(), ViewPayload{
		SessionID: "real", VideoID: 1, CompletionRate: 90, IP: "203.0.113.9", UserAgent: cleanUA,
	}); err != nil {
		t.Fatalf("failed to record real view: %v", err)
	}

	gotSessions, gotViews, err := in.PurgeTestData(context.Background())
	if err != nil {
		t.Fatalf("failed to purge: %v", err)
	}
	if gotSessions != 1 || gotViews != 1 {
		t.Fatalf("expected purge of 1 session and 1 view, got %d / %d", gotSessions, gotViews)
	}

	remaining, err := env.sessions.List(context.Background(), hybrid.ListOptions[store.VisitorSession]{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining session, got %d", len(remaining))
	}
}

func TestIngestorClockInjection(t *testing.T) {
	env := setupAnalytics(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := env.ingestor().WithClock(func() time.Time { return fixed })

	sess, err := in.RecordSession(context.Background(), cleanSession("203.0.113.9"))
	if err != nil {
		t.Fatalf("failed to record session: %v", err)
	}
	if !sess.FirstSeenAt.Equal(fixed) || !sess.LastSeenAt.Equal(fixed) {
		t.Fatalf("expected injected clock, got %v / %v", sess.FirstSeenAt, sess.LastSeenAt)
	}
}
