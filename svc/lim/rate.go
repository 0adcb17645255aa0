// Package lim rate-limits paste creation per client IP. Buckets live in
// a bounded LRU so a scan across many source addresses cannot grow the
// table without bound; evicting a cold bucket just refills it on the
// next request from that address.
package lim

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"macrobin/metrics"
	"macrobin/svc/util"
)

const maxBuckets = 10000

type Limiter struct {
	buckets        *lru.Cache[string, *rate.Limiter]
	perMinute      int
	burst          int
	trustedProxies []string
}

// New panics on malformed trusted proxy entries so a bad deployment
// value fails at startup rather than silently trusting nobody.
func New(perMinute, burst int, trustedProxies []string) *Limiter {
	for _, proxy := range trustedProxies {
		if strings.Contains(proxy, "/") {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				panic(fmt.Sprintf("invalid CIDR in trusted proxies: %s: %v", proxy, err))
			}
		} else if net.ParseIP(proxy) == nil {
			panic(fmt.Sprintf("invalid IP in trusted proxies: %s", proxy))
		}
	}
	buckets, err := lru.New[string, *rate.Limiter](maxBuckets)
	if err != nil {
		panic(err)
	}
	return &Limiter{
		buckets:        buckets,
		perMinute:      perMinute,
		burst:          burst,
		trustedProxies: trustedProxies,
	}
}

// Allow reports whether a request from the given client may proceed.
func (l *Limiter) Allow(r *http.Request) bool {
	ip := l.RealIP(r)
	bucket, ok := l.buckets.Get(ip)
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(l.perMinute)/60.0, l.burst)
		l.buckets.Add(ip, bucket)
	}
	if !bucket.Allow() {
		metrics.RateLimitHits.Inc()
		util.Debug().Str("ip", util.RedactIP(ip)).Msg("rate limit exceeded")
		return false
	}
	return true
}

// RetryAfter is the interval clients should be told to wait once a
// bucket is empty.
func (l *Limiter) RetryAfter() time.Duration {
	return time.Minute
}

// RealIP resolves the client address, walking X-Forwarded-For from the
// right only while the hops are trusted proxies. An untrusted remote
// address never gets to pick its own identity from the header.
func (l *Limiter) RealIP(r *http.Request) string {
	remoteIP := stripPort(r.RemoteAddr)
	if len(l.trustedProxies) == 0 || !l.trusted(remoteIP) {
		return remoteIP
	}
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return remoteIP
	}
	parts := strings.Split(xff, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		ipStr := strings.TrimSpace(parts[i])
		if net.ParseIP(ipStr) == nil {
			continue
		}
		if !l.trusted(ipStr) {
			return ipStr
		}
	}
	return remoteIP
}

func (l *Limiter) trusted(ip string) bool {
	for _, proxy := range l.trustedProxies {
		if ip == proxy {
			return true
		}
		if strings.Contains(proxy, "/") {
			if _, subnet, err := net.ParseCIDR(proxy); err == nil {
				if parsed := net.ParseIP(ip); parsed != nil && subnet.Contains(parsed) {
					return true
				}
			}
		}
	}
	return false
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
