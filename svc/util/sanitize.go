package util

import (
	"net"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnsafeName = errors.New("unsafe file name")

// SanitizeFileName validates a client-supplied attachment name. Rejection
// beats rewriting: a name that smells like traversal or carries shell- or
// path-relevant characters fails outright instead of being mangled into
// something the uploader did not send.
func SanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return "", ErrUnsafeName
	}
	if strings.Contains(name, "..") {
		return "", ErrUnsafeName
	}
	if strings.HasPrefix(name, ".") {
		return "", ErrUnsafeName
	}
	for _, r := range name {
		switch {
		case r < 32 || r == 127:
			return "", ErrUnsafeName
		case strings.ContainsRune(`/\:*?"<>|`+"\x00", r):
			return "", ErrUnsafeName
		}
	}
	return name, nil
}

// RedactIP trims an address for logging: last IPv4 octet zeroed, IPv6
// truncated to its /32.
func RedactIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "invalid"
	}
	if ipv4 := parsed.To4(); ipv4 != nil {
		ipv4[3] = 0
		return ipv4.String()
	}
	ipv6 := parsed.To16()
	for i := 4; i < 16; i++ {
		ipv6[i] = 0
	}
	return ipv6.String()
}
