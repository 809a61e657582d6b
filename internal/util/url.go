package util

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// LinkDomain returns the registrable domain of rawURL ("sub.example.co.uk"
// becomes "example.co.uk"). Unparseable or host-less URLs yield "".
func LinkDomain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// AbsoluteURL resolves ref against base. Refs that are already absolute, or
// that fail to parse, are returned unchanged.
func AbsoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil || refURL.IsAbs() {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
