package traffic

import (
	"net"
	"strings"

	"github.com/studioreel/internal/store"
)

// MatchesCIDR reports whether ip falls inside cidr. A cidr without a "/"
// prefix is treated as an exact-match literal. An empty or unparseable ip
// never matches: a record with no usable IP is excluded from filtering, not
// treated as universally excluded.
func MatchesCIDR(ip, cidr string) bool {
	ip = strings.TrimSpace(ip)
	cidr = strings.TrimSpace(cidr)
	if ip == "" || cidr == "" {
		return false
	}

	if !strings.Contains(cidr, "/") {
		return ip == cidr
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	// (ip & mask) == (network & mask)
	return network.Contains(parsed)
}

// ExcludedByRules reports whether a record with the given ip and user agent
// matches any active exclusion rule. Rules carrying a user-agent substring
// require both the CIDR and the substring to match. Callers fetch the rule
// set once per evaluation batch, not per record.
func ExcludedByRules(ip, userAgent string, rules []store.ExclusionRule) bool {
	for i := range rules {
		rule := &rules[i]
		if !rule.Active {
			continue
		}
		if !MatchesCIDR(ip, rule.CIDR) {
			continue
		}
		if rule.UAContains != "" &&
			!strings.Contains(strings.ToLower(userAgent), strings.ToLower(rule.UAContains)) {
			continue
		}
		return true
	}
	return false
}
