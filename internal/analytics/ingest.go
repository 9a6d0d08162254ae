package analytics

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/studioreel/internal/geo"
	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
	"github.com/studioreel/internal/traffic"
)

// Collection aliases keep the generic instantiations readable.
type (
	Sessions = hybrid.Collection[store.VisitorSession, *store.VisitorSession]
	Views    = hybrid.Collection[store.VideoView, *store.VideoView]
	Rules    = hybrid.Collection[store.ExclusionRule, *store.ExclusionRule]
)

// ThresholdStore supplies and persists the global completion threshold.
type ThresholdStore interface {
	CompletionThreshold(ctx context.Context) float64
	SetCompletionThreshold(ctx context.Context, percent float64) error
}

// ErrSessionNotFound is returned when touching a session id that was never
// recorded (or was dropped by classification).
var ErrSessionNotFound = errors.New("session not found")

// Ingestor turns raw request payloads into persisted sessions and views,
// running the traffic classifier and the exclusion rules before anything is
// counted, and enriching sessions with geolocation best-effort afterwards.
type Ingestor struct {
	sessions  *Sessions
	views     *Views
	rules     *Rules
	resolver  *geo.Resolver
	threshold ThresholdStore
	siteHost  string
	syncGeo   bool
	now       func() time.Time
}

// NewIngestor wires an Ingestor. resolver may be nil (no enrichment).
func NewIngestor(sessions *Sessions, views *Views, rules *Rules, resolver *geo.Resolver, threshold ThresholdStore) *Ingestor {
	return &Ingestor{
		sessions:  sessions,
		views:     views,
		rules:     rules,
		resolver:  resolver,
		threshold: threshold,
		now:       time.Now,
	}
}

// WithSiteHost sets the site's canonical production host from its configured
// base URL, feeding the classifier's production evidence check.
func (in *Ingestor) WithSiteHost(baseURL string) *Ingestor {
	if u, err := url.Parse(strings.TrimSpace(baseURL)); err == nil && u.Host != "" {
		in.siteHost = strings.ToLower(u.Host)
	}
	return in
}

// WithSyncEnrichment makes geolocation enrichment run inline instead of in a
// goroutine, for tests.
func (in *Ingestor) WithSyncEnrichment() *Ingestor {
	in.syncGeo = true
	return in
}

// WithClock overrides the time source, for tests.
func (in *Ingestor) WithClock(now func() time.Time) *Ingestor {
	if now != nil {
		in.now = now
	}
	return in
}

// SessionPayload is the raw session material the ingestion endpoint builds
// from request context.
type SessionPayload struct {
	IP               string
	UserAgent        string
	Language         string
	Referrer         string
	PageURL          string
	ScreenResolution string
}

// RecordSession classifies and persists a new visitor session. It returns
// nil (and no error) when the traffic must not be counted at all: admin-area
// pages and excluded IP ranges.
func (in *Ingestor) RecordSession(ctx context.Context, p SessionPayload) (*store.VisitorSession, error) {
	verdict := traffic.Classify(traffic.Signals{
		IP:               p.IP,
		UserAgent:        p.UserAgent,
		Referrer:         p.Referrer,
		PageURL:          p.PageURL,
		ScreenResolution: p.ScreenResolution,
		SiteHost:         in.siteHost,
	})
	if verdict.Skip {
		return nil, nil
	}
	if in.excluded(ctx, p.IP, p.UserAgent) {
		return nil, nil
	}

	now := in.now()
	sess := store.VisitorSession{
		SessionID:        uuid.NewString(),
		IP:               p.IP,
		UserAgent:        p.UserAgent,
		Language:         p.Language,
		Referrer:         p.Referrer,
		PageURL:          p.PageURL,
		ScreenResolution: p.ScreenResolution,
		PageCount:        1,
		IsBot:            verdict.IsBot,
		IsTestData:       verdict.IsTestData,
		IsReturning:      in.isReturning(ctx, p.IP),
		FirstSeenAt:      now,
		LastSeenAt:       now,
	}

	created, err := in.sessions.Create(ctx, sess)
	if err != nil {
		return nil, err
	}

	if in.resolver != nil {
		if in.syncGeo {
			in.enrich(ctx, created.ID, created.IP)
		} else {
			go func() {
				bg, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				in.enrich(bg, created.ID, created.IP)
			}()
		}
	}
	return &created, nil
}

// TouchSession updates duration and page count of a live session in place.
func (in *Ingestor) TouchSession(ctx context.Context, sessionID string, duration, pageCount int) error {
	sess, err := in.findSession(ctx, sessionID)
	if err != nil {
		return err
	}
	now := in.now()
	_, err = in.sessions.Update(ctx, sess.ID, func(s *store.VisitorSession) {
		if duration > s.Duration {
			s.Duration = duration
		}
		if pageCount > s.PageCount {
			s.PageCount = pageCount
		}
		s.LastSeenAt = now
	})
	return err
}

// ViewPayload is the raw view material from the ingestion endpoint.
type ViewPayload struct {
	SessionID      string
	VideoID        uint
	WatchTime      int
	CompletionRate float64
	IP             string
	UserAgent      string
}

// RecordView persists a watch/page-view event. Completed derives from the
// configured completion threshold at write time; the record is immutable
// afterwards except for retroactive threshold recomputation.
func (in *Ingestor) RecordView(ctx context.Context, p ViewPayload) (*store.VideoView, error) {
	verdict := traffic.Classify(traffic.Signals{
		IP:        p.IP,
		SessionID: p.SessionID,
		UserAgent: p.UserAgent,
	})
	if verdict.Skip {
		return nil, nil
	}
	if in.excluded(ctx, p.IP, p.UserAgent) {
		return nil, nil
	}

	rate := p.CompletionRate
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}

	view := store.VideoView{
		SessionID:      p.SessionID,
		VideoID:        p.VideoID,
		WatchTime:      p.WatchTime,
		CompletionRate: rate,
		Completed:      rate >= in.completionThreshold(ctx),
		IsBot:          verdict.IsBot,
		IsTestData:     verdict.IsTestData,
	}
	created, err := in.views.Create(ctx, view)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// PurgeTestData removes sessions and views flagged as bot or test traffic.
// This is the only path that hard-deletes sessions.
func (in *Ingestor) PurgeTestData(ctx context.Context) (sessions, views int, err error) {
	flaggedSessions, err := in.sessions.List(ctx, hybrid.ListOptions[store.VisitorSession]{
		Where: "is_bot = ? OR is_test_data = ?",
		Args:  []any{true, true},
		Match: func(s store.VisitorSession) bool { return s.IsBot || s.IsTestData },
	})
	if err != nil {
		return 0, 0, err
	}
	for i := range flaggedSessions {
		if derr := in.sessions.Delete(ctx, flaggedSessions[i].ID); derr != nil {
			// 并发清理可能已删除该行
			if errors.Is(derr, hybrid.ErrNotFound) {
				continue
			}
			return sessions, views, derr
		}
		sessions++
	}

	flaggedViews, err := in.views.List(ctx, hybrid.ListOptions[store.VideoView]{
		Where: "is_bot = ? OR is_test_data = ?",
		Args:  []any{true, true},
		Match: func(v store.VideoView) bool { return v.IsBot || v.IsTestData },
	})
	if err != nil {
		return sessions, 0, err
	}
	for i := range flaggedViews {
		if derr := in.views.Delete(ctx, flaggedViews[i].ID); derr != nil {
			if errors.Is(derr, hybrid.ErrNotFound) {
				continue
			}
			return sessions, views, derr
		}
		views++
	}
	return sessions, views, nil
}

// BackfillLocations enriches sessions that still have no country, in one
// rate-limited batch pass. Returns the batch report of the resolver.
func (in *Ingestor) BackfillLocations(ctx context.Context) (geo.BatchReport, error) {
	if in.resolver == nil {
		return geo.BatchReport{}, nil
	}
	missing, err := in.sessions.List(ctx, hybrid.ListOptions[store.VisitorSession]{
		Where: "country = '' AND is_bot = ? AND is_test_data = ?",
		Args:  []any{false, false},
		Match: func(s store.VisitorSession) bool { return s.Country == "" && !s.IsBot && !s.IsTestData },
	})
	if err != nil {
		return geo.BatchReport{}, err
	}

	ips := make([]string, 0, len(missing))
	for i := range missing {
		ips = append(ips, missing[i].IP)
	}
	report := in.resolver.ResolveBatch(ctx, ips)

	for i := range missing {
		in.enrich(ctx, missing[i].ID, missing[i].IP)
	}
	return report, nil
}

// enrich resolves the session IP and writes the location fields back.
// Enrichment failures leave the fields empty; they never surface.
func (in *Ingestor) enrich(ctx context.Context, sessionID uint, ip string) {
	loc, ok := in.resolver.Resolve(ctx, ip)
	if !ok {
		return
	}
	if _, err := in.sessions.Update(ctx, sessionID, func(s *store.VisitorSession) {
		s.Country = loc.Country
		s.Region = loc.Region
		s.City = loc.City
	}); err != nil {
		log.Warn().Uint("session_id", sessionID).Err(err).Msg("failed to write geo enrichment")
	}
}

func (in *Ingestor) excluded(ctx context.Context, ip, userAgent string) bool {
	if in.rules == nil {
		return false
	}
	rules, err := in.rules.List(ctx, hybrid.ListOptions[store.ExclusionRule]{
		Where: "active = ?",
		Args:  []any{true},
		Match: func(r store.ExclusionRule) bool { return r.Active },
	})
	if err != nil {
		// rule fetch failure must not drop real traffic
		log.Warn().Err(err).Msg("exclusion rules unavailable, counting record")
		return false
	}
	return traffic.ExcludedByRules(ip, userAgent, rules)
}

func (in *Ingestor) isReturning(ctx context.Context, ip string) bool {
	if ip == "" {
		return false
	}
	prior, err := in.sessions.List(ctx, hybrid.ListOptions[store.VisitorSession]{
		Where: "ip = ?",
		Args:  []any{ip},
		Match: func(s store.VisitorSession) bool { return s.IP == ip },
	})
	return err == nil && len(prior) > 0
}

func (in *Ingestor) completionThreshold(ctx context.Context) float64 {
	if in.threshold == nil {
		return DefaultCompletionThreshold
	}
	return in.threshold.CompletionThreshold(ctx)
}

func (in *Ingestor) findSession(ctx context.Context, sessionID string) (*store.VisitorSession, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	matches, err := in.sessions.List(ctx, hybrid.ListOptions[store.VisitorSession]{
		Where: "session_id = ?",
		Args:  []any{sessionID},
		Match: func(s store.VisitorSession) bool { return s.SessionID == sessionID },
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrSessionNotFound
	}
	return &matches[0], nil
}
