// Package geo resolves visitor IPs to coarse locations through a primary
// provider with a secondary-provider fallback. Lookups are best-effort
// enrichment: the resolver never returns an error to session creation, it
// just reports "no location".
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

const (
	defaultTTL      = 24 * time.Hour
	defaultMinDelay = 3 * time.Second

	batchSize   = 5
	batchPause  = 1 * time.Second
	itemStagger = 200 * time.Millisecond
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Locations is the persisted side of the lookup cache, kept behind the
// hybrid coordinator so pre-warmed entries survive restarts.
type Locations = hybrid.Collection[store.CachedLocation, *store.CachedLocation]

// Options configures a Resolver.
type Options struct {
	PrimaryBaseURL  string // ip-api.com style
	FallbackBaseURL string // ipapi.co style
	TTL             time.Duration
	MinDelay        time.Duration
	Locations       *Locations // optional write-through persistence
}

// Resolver owns all lookup state: the in-memory TTL cache, the set of
// permanently failed IPs and the process-wide rate gate every caller queues
// behind. State is instance-owned, not package-global, so tests can run
// multiple resolvers side by side.
type Resolver struct {
	primaryBase  string
	fallbackBase string
	http         httpDoer
	limiter      *rate.Limiter
	ttl          time.Duration
	locations    *Locations
	now          func() time.Time

	mu     sync.Mutex
	cache  map[string]store.CachedLocation
	failed map[string]struct{}
}

// NewResolver constructs a Resolver with its own cache and rate gate.
func NewResolver(opts Options) *Resolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	minDelay := opts.MinDelay
	if minDelay <= 0 {
		minDelay = defaultMinDelay
	}
	return &Resolver{
		primaryBase:  strings.TrimRight(opts.PrimaryBaseURL, "/"),
		fallbackBase: strings.TrimRight(opts.FallbackBaseURL, "/"),
		http:         &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(minDelay), 1),
		ttl:          ttl,
		locations:    opts.Locations,
		now:          time.Now,
		cache:        make(map[string]store.CachedLocation),
		failed:       make(map[string]struct{}),
	}
}

// SetHTTPClient replaces the outbound HTTP client, for tests.
func (r *Resolver) SetHTTPClient(client httpDoer) {
	if client != nil {
		r.http = client
	}
}

// WithClock overrides the time source, for tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now != nil {
		r.now = now
	}
	return r
}

// Warm preloads the in-memory cache from the persisted location entries.
func (r *Resolver) Warm(ctx context.Context) {
	if r.locations == nil {
		return
	}
	entries, err := r.locations.List(ctx, hybrid.ListOptions[store.CachedLocation]{})
	if err != nil {
		log.Warn().Err(err).Msg("geo cache warm-up failed")
		return
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range entries {
		if !entries[i].Expired(now) {
			r.cache[entries[i].IP] = entries[i]
		}
	}
}

// Resolve returns the location for ip, or ok=false when the ip is local,
// previously failed for good, or both providers are exhausted.
func (r *Resolver) Resolve(ctx context.Context, ip string) (store.CachedLocation, bool) {
	ip = strings.TrimSpace(ip)
	if !resolvable(ip) {
		return store.CachedLocation{}, false
	}

	r.mu.Lock()
	if loc, ok := r.cache[ip]; ok && !loc.Expired(r.now()) {
		r.mu.Unlock()
		return loc, true
	}
	if _, bad := r.failed[ip]; bad {
		r.mu.Unlock()
		return store.CachedLocation{}, false
	}
	r.mu.Unlock()

	// every caller queues behind the shared gate
	if err := r.limiter.Wait(ctx); err != nil {
		return store.CachedLocation{}, false
	}

	loc, err := r.lookupPrimary(ctx, ip)
	if err != nil {
		log.Debug().Str("ip", ip).Err(err).Msg("primary geo provider failed, trying fallback")
		loc, err = r.lookupFallback(ctx, ip)
	}
	if err != nil {
		log.Warn().Str("ip", ip).Err(err).Msg("geolocation unavailable for ip")
		r.mu.Lock()
		r.failed[ip] = struct{}{}
		r.mu.Unlock()
		return store.CachedLocation{}, false
	}

	loc.IP = ip
	loc.ExpiresAt = r.now().Add(r.ttl)

	r.mu.Lock()
	r.cache[ip] = loc
	r.mu.Unlock()

	r.persist(ctx, loc)
	return loc, true
}

// BatchReport summarizes a batch enrichment pass.
type BatchReport struct {
	Total    int
	Resolved int
}

// SuccessRate returns resolved/total as a percentage.
func (b BatchReport) SuccessRate() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Resolved) / float64(b.Total) * 100
}

// ResolveBatch deduplicates ips and processes them in small fixed batches
// with an inter-batch pause and an in-batch stagger, on top of the shared
// rate gate.
func (r *Resolver) ResolveBatch(ctx context.Context, ips []string) BatchReport {
	seen := make(map[string]struct{}, len(ips))
	unique := make([]string, 0, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}
		unique = append(unique, ip)
	}

	report := BatchReport{Total: len(unique)}
	for start := 0; start < len(unique); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return report
			case <-time.After(batchPause):
			}
		}
		end := start + batchSize
		if end > len(unique) {
			end = len(unique)
		}
		for i, ip := range unique[start:end] {
			if i > 0 {
				select {
				case <-ctx.Done():
					return report
				case <-time.After(itemStagger):
				}
			}
			if _, ok := r.Resolve(ctx, ip); ok {
				report.Resolved++
			}
		}
	}

	log.Info().Int("total", report.Total).Int("resolved", report.Resolved).
		Float64("success_rate", report.SuccessRate()).Msg("geo batch enrichment finished")
	return report
}

func (r *Resolver) persist(ctx context.Context, loc store.CachedLocation) {
	if r.locations == nil {
		return
	}
	existing, err := r.locations.List(ctx, hybrid.ListOptions[store.CachedLocation]{
		Where: "ip = ?",
		Args:  []any{loc.IP},
		Match: func(l store.CachedLocation) bool { return l.IP == loc.IP },
	})
	if err == nil && len(existing) > 0 {
		_, err = r.locations.Update(ctx, existing[0].ID, func(l *store.CachedLocation) {
			id, meta := l.ID, l.Meta
			*l = loc
			l.Meta = meta
			l.ID = id
		})
	} else {
		_, err = r.locations.Create(ctx, loc)
	}
	if err != nil {
		log.Warn().Str("ip", loc.IP).Err(err).Msg("failed to persist geo cache entry")
	}
}

// primaryResponse is the ip-api.com shape.
type primaryResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
	Org        string  `json:"org"`
	ISP        string  `json:"isp"`
}

func (r *Resolver) lookupPrimary(ctx context.Context, ip string) (store.CachedLocation, error) {
	var zero store.CachedLocation
	if r.primaryBase == "" {
		return zero, fmt.Errorf("primary geo provider not configured")
	}

	body, status, err := r.fetch(ctx, fmt.Sprintf("%s/%s", r.primaryBase, ip))
	if err != nil {
		return zero, err
	}
	if status == http.StatusTooManyRequests {
		return zero, fmt.Errorf("primary geo provider rate limited")
	}
	if status != http.StatusOK {
		return zero, fmt.Errorf("primary geo provider returned status %d", status)
	}

	var resp primaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return zero, fmt.Errorf("decode primary geo response: %w", err)
	}
	if resp.Status != "success" {
		return zero, fmt.Errorf("primary geo provider failed: %s", resp.Message)
	}

	org := resp.Org
	if org == "" {
		org = resp.ISP
	}
	return store.CachedLocation{
		Country:   resp.Country,
		Region:    resp.RegionName,
		City:      resp.City,
		Latitude:  resp.Lat,
		Longitude: resp.Lon,
		Timezone:  resp.Timezone,
		Org:       org,
		Source:    "primary",
	}, nil
}

// fallbackResponse is the ipapi.co shape.
type fallbackResponse struct {
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	CountryName string  `json:"country_name"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Org         string  `json:"org"`
}

func (r *Resolver) lookupFallback(ctx context.Context, ip string) (store.CachedLocation, error) {
	var zero store.CachedLocation
	if r.fallbackBase == "" {
		return zero, fmt.Errorf("fallback geo provider not configured")
	}

	body, status, err := r.fetch(ctx, fmt.Sprintf("%s/%s/json/", r.fallbackBase, ip))
	if err != nil {
		return zero, err
	}
	if status != http.StatusOK {
		return zero, fmt.Errorf("fallback geo provider returned status %d", status)
	}

	var resp fallbackResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return zero, fmt.Errorf("decode fallback geo response: %w", err)
	}
	if resp.Error {
		return zero, fmt.Errorf("fallback geo provider failed: %s", resp.Reason)
	}

	return store.CachedLocation{
		Country:   resp.CountryName,
		Region:    resp.Region,
		City:      resp.City,
		Latitude:  resp.Latitude,
		Longitude: resp.Longitude,
		Timezone:  resp.Timezone,
		Org:       resp.Org,
		Source:    "fallback",
	}, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// resolvable filters out addresses no provider can place.
func resolvable(ip string) bool {
	if ip == "" || ip == "localhost" {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified()
}
