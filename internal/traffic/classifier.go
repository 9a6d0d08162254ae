// Package traffic decides whether an inbound session or view is real user
// traffic, a bot, or test/development traffic. The rules are heuristic string
// checks by nature; each sub-check is a named predicate so it can be unit
// tested and tuned independently.
package traffic

import (
	"net"
	"strconv"
	"strings"
)

// Signals carries the raw request attributes the classifier inspects.
// SiteHost, when set, is the site's canonical production host; page URLs on
// that host (or a subdomain of it) count as production evidence.
type Signals struct {
	IP               string
	SessionID        string
	UserAgent        string
	Referrer         string
	PageURL          string
	ScreenResolution string
	SiteHost         string
}

// Result is the classifier verdict. Skip means the record must not be
// counted at all (admin-area traffic), as opposed to being stored flagged.
type Result struct {
	IsBot      bool
	IsTestData bool
	Skip       bool
}

var botUATokens = []string{
	"bot", "crawler", "spider", "crawling", "scrapy", "lighthouse",
	"curl", "wget", "python-requests", "go-http-client", "httpclient",
}

var headlessUATokens = []string{
	"headless", "phantomjs", "selenium", "puppeteer", "playwright", "webdriver",
}

var testSessionPrefixes = []string{"test_", "test-", "dev_", "dev-", "e2e_", "e2e-"}

var devReferrerMarkers = []string{
	"localhost", "127.0.0.1", "0.0.0.0", ".local", "staging.", "dev.", ":3000", ":5173", ":8080",
}

// Classify inspects the signals and returns the traffic verdict.
//
// Hard signals (local source IP, test session prefix, automation user agent)
// always win. Weak signals (a dev marker in the referrer, a bare "test" token
// in the user agent) are suppressed when the record carries strong production
// evidence, so real traffic is never silently dropped by an overzealous rule.
func Classify(sig Signals) Result {
	var res Result

	if pathIsAdmin(sig.Referrer) || pathIsAdmin(sig.PageURL) {
		res.Skip = true
		return res
	}

	if ipIsLocal(sig.IP) || sessionIDHasTestPrefix(sig.SessionID) {
		res.IsTestData = true
	}

	if uaIsAutomation(sig.UserAgent) {
		res.IsBot = true
		res.IsTestData = true
	} else if uaIsBot(sig.UserAgent) {
		res.IsBot = true
	}

	weak := referrerHasDevMarker(sig.Referrer) || uaHasWeakTestToken(sig.UserAgent)
	if weak && !res.IsTestData && !productionOverride(sig) {
		res.IsTestData = true
	}

	return res
}

// pathIsAdmin excludes admin-area page URLs from session counting altogether.
func pathIsAdmin(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	return strings.Contains(raw, "/admin")
}

// ipIsLocal matches loopback and private ranges plus explicit localhost
// markers.
func ipIsLocal(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return false
	}
	if ip == "localhost" || ip == "::1" {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast()
}

func sessionIDHasTestPrefix(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, prefix := range testSessionPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// uaIsAutomation matches headless browsers and driver frameworks; these are
// both bot and test traffic.
func uaIsAutomation(ua string) bool {
	ua = strings.ToLower(ua)
	for _, token := range headlessUATokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

// uaIsBot matches crawlers and non-browser HTTP clients.
func uaIsBot(ua string) bool {
	ua = strings.ToLower(ua)
	for _, token := range botUATokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

// uaHasWeakTestToken matches a delimited "test" token in an otherwise
// browser-looking user agent. Substrings like "latest" do not count. Weak
// signal, subject to the production override.
func uaHasWeakTestToken(ua string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(ua), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, tok := range tokens {
		if tok == "test" {
			return true
		}
	}
	return false
}

func referrerHasDevMarker(referrer string) bool {
	referrer = strings.ToLower(strings.TrimSpace(referrer))
	if referrer == "" {
		return false
	}
	for _, marker := range devReferrerMarkers {
		if strings.Contains(referrer, marker) {
			return true
		}
	}
	return false
}

// productionOverride reports strong "real production" evidence: a realistic
// non-default screen resolution, a recognized consumer browser token and a
// production-looking host in the page URL. Two of the three suffice.
func productionOverride(sig Signals) bool {
	score := 0
	if resolutionLooksReal(sig.ScreenResolution) {
		score++
	}
	if uaLooksConsumer(sig.UserAgent) {
		score++
	}
	if hostLooksProduction(sig.PageURL, sig.SiteHost) {
		score++
	}
	return score >= 2
}

func resolutionLooksReal(res string) bool {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(res)), "x", 2)
	if len(parts) != 2 {
		return false
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		return false
	}
	// default automation viewports
	if (w == 800 && h == 600) || (w == 1024 && h == 768) {
		return false
	}
	return w >= 360 && h >= 640 || w >= 1280 && h >= 700
}

func uaLooksConsumer(ua string) bool {
	if uaIsBot(ua) || uaIsAutomation(ua) {
		return false
	}
	ua = strings.ToLower(ua)
	for _, token := range []string{"chrome/", "firefox/", "safari/", "edg/", "opr/"} {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}

func hostLooksProduction(pageURL, siteHost string) bool {
	pageURL = strings.ToLower(strings.TrimSpace(pageURL))
	if pageURL == "" {
		return false
	}
	if !strings.HasPrefix(pageURL, "https://") {
		return false
	}
	host := strings.TrimPrefix(pageURL, "https://")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}

	siteHost = strings.ToLower(strings.TrimSpace(siteHost))
	if siteHost != "" && (host == siteHost || strings.HasSuffix(host, "."+siteHost)) {
		return true
	}

	for _, marker := range devReferrerMarkers {
		if strings.Contains(pageURL, marker) {
			return false
		}
	}
	return strings.Contains(host, ".")
}
