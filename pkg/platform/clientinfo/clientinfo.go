// Package clientinfo derives the privacy-safe client description recorded on
// audit entries and request logs.
package clientinfo

import (
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

// Unknown is reported when a value is missing or unparseable.
const Unknown = "unknown"

// AnonymizeIP masks the host part of an address: IPv4 to its /24, IPv6 to its /48.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == Unknown {
		return Unknown
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()
	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// DescribeUserAgent returns "Browser on OS", e.g. "Firefox on Linux".
func DescribeUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return Unknown
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		os = ua.Platform()
	}
	if browser == "" {
		browser = "Unknown browser"
	}
	if os == "" {
		os = "unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

// Summary combines the user agent description and anonymized address.
// An empty string means nothing is known about the client.
func Summary(ip, userAgent string) string {
	if ip == "" && userAgent == "" {
		return ""
	}
	return DescribeUserAgent(userAgent) + " from " + AnonymizeIP(ip)
}
