package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

// DefaultCompletionThreshold is the completion percentage used when no
// threshold has been configured.
const DefaultCompletionThreshold = 80.0

// Engagement bucket labels shared by pair and video aggregates.
const (
	EngagementHigh   = "high"
	EngagementMedium = "medium"
	EngagementLow    = "low"
)

// PairEngagement aggregates all views of one (session, video) pair.
type PairEngagement struct {
	SessionID          string    `json:"session_id"`
	VideoID            uint      `json:"video_id"`
	ViewCount          int       `json:"view_count"`
	BestCompletionRate float64   `json:"best_completion_rate"`
	TotalWatchTime     int       `json:"total_watch_time"`
	FirstViewAt        time.Time `json:"first_view_at"`
	LastViewAt         time.Time `json:"last_view_at"`
	IsReWatch          bool      `json:"is_re_watch"`
	Engagement         string    `json:"engagement"`
}

// VideoEngagement aggregates re-watch behaviour per video.
type VideoEngagement struct {
	VideoID              uint    `json:"video_id"`
	TotalViews           int     `json:"total_views"`
	UniqueViewers        int     `json:"unique_viewers"`
	ReWatchers           int     `json:"re_watchers"`
	ReWatchRate          float64 `json:"re_watch_rate"`
	AvgViewsPerReWatcher float64 `json:"avg_views_per_re_watcher"`
	Level                string  `json:"level"`
	Recommendation       string  `json:"recommendation"`
}

// DayBucket is one UTC calendar day of activity. Days without activity are
// absent from the series; callers handle sparse output.
type DayBucket struct {
	Date            string  `json:"date"`
	Visitors        int     `json:"visitors"`
	TotalViews      int     `json:"total_views"`
	UniqueViews     int     `json:"unique_views"`
	Countries       int     `json:"countries"`
	ViewsPerVisitor float64 `json:"views_per_visitor"`
}

// DashboardStats is the admin dashboard summary over a date range.
type DashboardStats struct {
	Sessions      int         `json:"sessions"`
	BotSessions   int         `json:"bot_sessions"`
	TestSessions  int         `json:"test_sessions"`
	TotalViews    int         `json:"total_views"`
	UniqueViewers int         `json:"unique_viewers"`
	TopCountries  []NameCount `json:"top_countries"`
	TopLanguages  []NameCount `json:"top_languages"`
	TopReferrers  []NameCount `json:"top_referrers"`
	Days          []DayBucket `json:"days"`
}

// NameCount is a label with an occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RecalcResult reports a retroactive threshold recomputation pass.
type RecalcResult struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// Aggregator computes dashboards from raw session and view records.
type Aggregator struct {
	sessions  *Sessions
	views     *Views
	threshold ThresholdStore
	now       func() time.Time
}

// NewAggregator wires an Aggregator.
func NewAggregator(sessions *Sessions, views *Views, threshold ThresholdStore) *Aggregator {
	return &Aggregator{sessions: sessions, views: views, threshold: threshold, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	if now != nil {
		a.now = now
	}
	return a
}

// BuildPairs folds raw views into per-(session, video) aggregates. Exposed
// as a pure function so the engagement rules are testable without storage.
func BuildPairs(views []store.VideoView) []PairEngagement {
	type key struct {
		session string
		video   uint
	}
	byPair := make(map[key]*PairEngagement)
	order := make([]key, 0)

	for i := range views {
		v := &views[i]
		k := key{v.SessionID, v.VideoID}
		pair, ok := byPair[k]
		if !ok {
			pair = &PairEngagement{
				SessionID:   v.SessionID,
				VideoID:     v.VideoID,
				FirstViewAt: v.CreatedAt,
				LastViewAt:  v.CreatedAt,
			}
			byPair[k] = pair
			order = append(order, k)
		}
		pair.ViewCount++
		pair.TotalWatchTime += v.WatchTime
		if v.CompletionRate > pair.BestCompletionRate {
			pair.BestCompletionRate = v.CompletionRate
		}
		if v.CreatedAt.Before(pair.FirstViewAt) {
			pair.FirstViewAt = v.CreatedAt
		}
		if v.CreatedAt.After(pair.LastViewAt) {
			pair.LastViewAt = v.CreatedAt
		}
	}

	pairs := make([]PairEngagement, 0, len(order))
	for _, k := range order {
		pair := byPair[k]
		pair.IsReWatch = pair.ViewCount >= 2
		switch {
		case pair.IsReWatch:
			pair.Engagement = EngagementHigh
		case pair.BestCompletionRate >= 80:
			pair.Engagement = EngagementMedium
		default:
			pair.Engagement = EngagementLow
		}
		pairs = append(pairs, *pair)
	}
	return pairs
}

// Engagement computes per-video aggregates. videoID 0 means all videos; a
// zero dateFrom/dateTo leaves that bound open.
func (a *Aggregator) Engagement(ctx context.Context, videoID uint, dateFrom, dateTo time.Time) ([]VideoEngagement, error) {
	views, err := a.loadViews(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	pairs := BuildPairs(views)
	byVideo := make(map[uint][]PairEngagement)
	for _, p := range pairs {
		if p.VideoID == 0 {
			continue // plain page views carry no video engagement
		}
		if videoID != 0 && p.VideoID != videoID {
			continue
		}
		byVideo[p.VideoID] = append(byVideo[p.VideoID], p)
	}

	out := make([]VideoEngagement, 0, len(byVideo))
	for id, vp := range byVideo {
		agg := VideoEngagement{VideoID: id, UniqueViewers: len(vp)}
		reWatchViews := 0
		for _, p := range vp {
			agg.TotalViews += p.ViewCount
			if p.IsReWatch {
				agg.ReWatchers++
				reWatchViews += p.ViewCount
			}
		}
		if agg.UniqueViewers > 0 {
			agg.ReWatchRate = float64(agg.ReWatchers) / float64(agg.UniqueViewers) * 100
		}
		if agg.ReWatchers > 0 {
			agg.AvgViewsPerReWatcher = float64(reWatchViews) / float64(agg.ReWatchers)
		}
		switch {
		case agg.ReWatchRate >= 30:
			agg.Level = EngagementHigh
		case agg.ReWatchRate >= 15:
			agg.Level = EngagementMedium
		default:
			agg.Level = EngagementLow
		}
		agg.Recommendation = recommendationFor(agg.Level)
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}

// recommendationFor maps an engagement level to the operator-facing hint shown
// on the dashboard.
func recommendationFor(level string) string {
	switch level {
	case EngagementHigh:
		return "Strong repeat interest. Feature this video more prominently."
	case EngagementMedium:
		return "Solid completion. Consider a stronger call to action at the end."
	default:
		return "Low engagement. Review the opening seconds and thumbnail."
	}
}

// TimeSeries groups sessions and views by UTC calendar day. The output is
// date-sorted and sparse: days with zero activity are not filled in.
func (a *Aggregator) TimeSeries(ctx context.Context, dateFrom, dateTo time.Time) ([]DayBucket, error) {
	sessions, err := a.loadSessions(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	views, err := a.loadViews(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	type dayAgg struct {
		visitors  map[string]struct{}
		countries map[string]struct{}
		pairs     map[string]struct{}
		views     int
	}
	days := make(map[string]*dayAgg)
	day := func(t time.Time) *dayAgg {
		k := t.UTC().Format("2006-01-02")
		d, ok := days[k]
		if !ok {
			d = &dayAgg{
				visitors:  make(map[string]struct{}),
				countries: make(map[string]struct{}),
				pairs:     make(map[string]struct{}),
			}
			days[k] = d
		}
		return d
	}

	for i := range sessions {
		s := &sessions[i]
		d := day(s.FirstSeenAt)
		d.visitors[s.SessionID] = struct{}{}
		if s.Country != "" {
			d.countries[s.Country] = struct{}{}
		}
	}
	for i := range views {
		v := &views[i]
		d := day(v.CreatedAt)
		d.views++
		d.pairs[fmt.Sprintf("%s/%d", v.SessionID, v.VideoID)] = struct{}{}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DayBucket, 0, len(keys))
	for _, k := range keys {
		d := days[k]
		bucket := DayBucket{
			Date:        k,
			Visitors:    len(d.visitors),
			TotalViews:  d.views,
			UniqueViews: len(d.pairs),
			Countries:   len(d.countries),
		}
		if bucket.Visitors > 0 {
			bucket.ViewsPerVisitor = float64(bucket.TotalViews) / float64(bucket.Visitors)
		}
		out = append(out, bucket)
	}
	return out, nil
}

// Dashboard summarizes a date range for the admin overview.
func (a *Aggregator) Dashboard(ctx context.Context, dateFrom, dateTo time.Time) (*DashboardStats, error) {
	sessions, err := a.loadSessionsAll(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	views, err := a.loadViews(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{TotalViews: len(views)}
	countries := make(map[string]int)
	languages := make(map[string]int)
	referrers := make(map[string]int)
	viewers := make(map[string]struct{})

	for i := range sessions {
		s := &sessions[i]
		switch {
		case s.IsBot:
			stats.BotSessions++
			continue
		case s.IsTestData:
			stats.TestSessions++
			continue
		}
		stats.Sessions++
		if s.Country != "" {
			countries[s.Country]++
		}
		if s.Language != "" {
			languages[s.Language]++
		}
		if s.Referrer != "" {
			referrers[s.Referrer]++
		}
	}
	for i := range views {
		viewers[views[i].SessionID] = struct{}{}
	}
	stats.UniqueViewers = len(viewers)
	stats.TopCountries = topCounts(countries, 10)
	stats.TopLanguages = topCounts(languages, 10)
	stats.TopReferrers = topCounts(referrers, 10)

	days, err := a.TimeSeries(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	stats.Days = days
	return stats, nil
}

// RecalcThreshold recomputes Completed on every stored view against a new
// global threshold. The backend is chosen once for the whole pass: the
// remote store if its initial read succeeds, otherwise the cache. Only views
// whose Completed actually flips are persisted.
func (a *Aggregator) RecalcThreshold(ctx context.Context, percent float64) (RecalcResult, error) {
	if percent < 1 || percent > 100 {
		return RecalcResult{}, fmt.Errorf("%w: completion threshold must be between 1 and 100", hybrid.ErrValidation)
	}

	views, origin, err := a.views.ListFrom(ctx, hybrid.ListOptions[store.VideoView]{})
	if err != nil {
		return RecalcResult{}, err
	}

	changed := make([]store.VideoView, 0)
	for i := range views {
		want := views[i].CompletionRate >= percent
		if want != views[i].Completed {
			views[i].Completed = want
			changed = append(changed, views[i])
		}
	}

	if err := a.views.SaveBatch(ctx, origin, changed); err != nil {
		return RecalcResult{}, err
	}
	if a.threshold != nil {
		if err := a.threshold.SetCompletionThreshold(ctx, percent); err != nil {
			return RecalcResult{}, err
		}
	}
	return RecalcResult{Updated: len(changed), Total: len(views)}, nil
}

// loadViews fetches real-traffic views for a window.
func (a *Aggregator) loadViews(ctx context.Context, dateFrom, dateTo time.Time) ([]store.VideoView, error) {
	where, args := windowClause("created_at", dateFrom, dateTo, "is_bot = ? AND is_test_data = ?", false, false)
	return a.views.List(ctx, hybrid.ListOptions[store.VideoView]{
		Where: where,
		Args:  args,
		Match: func(v store.VideoView) bool {
			return !v.IsBot && !v.IsTestData && inWindow(v.CreatedAt, dateFrom, dateTo)
		},
	})
}

// loadSessions fetches real-traffic sessions for a window.
func (a *Aggregator) loadSessions(ctx context.Context, dateFrom, dateTo time.Time) ([]store.VisitorSession, error) {
	where, args := windowClause("first_seen_at", dateFrom, dateTo, "is_bot = ? AND is_test_data = ?", false, false)
	return a.sessions.List(ctx, hybrid.ListOptions[store.VisitorSession]{
		Where: where,
		Args:  args,
		Match: func(s store.VisitorSession) bool {
			return !s.IsBot && !s.IsTestData && inWindow(s.FirstSeenAt, dateFrom, dateTo)
		},
	})
}

// loadSessionsAll fetches sessions including flagged ones, so the dashboard
// can report how much traffic the classifier filtered out.
func (a *Aggregator) loadSessionsAll(ctx context.Context, dateFrom, dateTo time.Time) ([]store.VisitorSession, error) {
	where, args := windowClause("first_seen_at", dateFrom, dateTo, "")
	return a.sessions.List(ctx, hybrid.ListOptions[store.VisitorSession]{
		Where: where,
		Args:  args,
		Match: func(s store.VisitorSession) bool { return inWindow(s.FirstSeenAt, dateFrom, dateTo) },
	})
}

func windowClause(column string, from, to time.Time, base string, baseArgs ...any) (string, []any) {
	where := base
	args := baseArgs
	if !from.IsZero() {
		if where != "" {
			where += " AND "
		}
		where += column + " >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		if where != "" {
			where += " AND "
		}
		where += column + " <= ?"
		args = append(args, to)
	}
	return where, args
}

func inWindow(t time.Time, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func topCounts(counts map[string]int, limit int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
