package util

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeWebsiteName reduces a URL or host to the registrable domain used
// as the vault key, e.g. "https://mail.google.com:443/x" -> "google.com".
// A bare word gets ".com" appended.
func NormalizeWebsiteName(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, ".") {
		s += ".com"
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if net.ParseIP(host) != nil {
		return host
	}
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}
