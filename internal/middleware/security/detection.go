// Package security provides response hardening headers, client IP
// resolution behind trusted proxies and a probe detector.
package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"moneyflow/internal/log"
)

const maxURLLength = 2048

var (
	probePatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		".git", ".ssh", "etc/passwd", "<script", "union select",
	}
	blockedMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

type DetectionMetrics struct {
	SuspiciousRequests int64
	BlockedRequests    int64
}

// Detector resolves client IPs and flags requests that look like probes.
type Detector struct {
	suspicious     int64
	blocked        int64
	trustedProxies []*net.IPNet
}

// NewDetector trusts loopback and private networks to set forwarding headers.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []*net.IPNet{
			mustParseCIDR("127.0.0.0/8"),
			mustParseCIDR("::1/128"),
			mustParseCIDR("10.0.0.0/8"),
			mustParseCIDR("172.16.0.0/12"),
			mustParseCIDR("192.168.0.0/16"),
		},
	}
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// AddTrustedProxy trusts another network to set forwarding headers.
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// IsSuspicious reports whether r matches a known probe pattern.
func (d *Detector) IsSuspicious(r *http.Request) bool {
	if len(r.URL.String()) > maxURLLength {
		return true
	}
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}
	return isBlockedMethod(r.Method)
}

// Middleware logs suspicious requests and rejects debugging methods.
func (d *Detector) Middleware(logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(log.ComponentSecurity)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !d.IsSuspicious(r) {
				next.ServeHTTP(w, r)
				return
			}
			atomic.AddInt64(&d.suspicious, 1)
			logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ExtractClientIP(r))
			if isBlockedMethod(r.Method) {
				atomic.AddInt64(&d.blocked, 1)
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractClientIP honors X-Forwarded-For and X-Real-IP only when the
// direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	parsed := net.ParseIP(directIP)
	if parsed == nil || !d.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.suspicious),
		BlockedRequests:    atomic.LoadInt64(&d.blocked),
	}
}

func isBlockedMethod(method string) bool {
	for _, m := range blockedMethods {
		if method == m {
			return true
		}
	}
	return false
}
