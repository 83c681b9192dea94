package http

import (
	"net"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
)

// securityMetrics tracks hardening counters exposed on /metrics.
type securityMetrics struct {
	rateLimitHits      int64
	invalidIPAttempts  int64
	suspiciousRequests int64
}

// defaultTrustedProxyCIDRs covers localhost and the private ranges, the
// networks a reverse proxy for this service would normally live in.
var defaultTrustedProxyCIDRs = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// parseProxyCIDRs parses the configured networks, skipping entries that
// do not parse. Config validation reports those to the operator.
func parseProxyCIDRs(cidrs []string) []*net.IPNet {
	if len(cidrs) == 0 {
		cidrs = defaultTrustedProxyCIDRs
	}
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			out = append(out, network)
		}
	}
	return out
}

// clientIP resolves the real client address. Forwarding headers are only
// believed when the direct peer is a trusted proxy.
func (s *Server) clientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	peer := net.ParseIP(directIP)
	if peer == nil {
		atomic.AddInt64(&s.metrics.invalidIPAttempts, 1)
		return directIP
	}

	trusted := false
	for _, network := range s.trustedProxies {
		if network.Contains(peer) {
			trusted = true
			break
		}
	}
	if !trusted {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return directIP
}

var (
	// probeTokens are path and query fragments a finance API never serves
	// legitimately.
	probeTokens = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	scannerAgents  = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner", "spider", "scraper"}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

const maxURLLength = 2048

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// detectSuspiciousRequest flags requests that look like scanner probes
// rather than API traffic. Flagged requests are logged, never blocked.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) bool {
	suspicious := containsAny(strings.ToLower(r.URL.Path), probeTokens) ||
		containsAny(strings.ToLower(r.URL.RawQuery), probeTokens) ||
		containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) ||
		slices.Contains(unusualMethods, r.Method) ||
		len(r.URL.String()) > maxURLLength ||
		strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5

	if suspicious && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}
	return suspicious
}
