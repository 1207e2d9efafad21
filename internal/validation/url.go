package validation

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// ErrInvalidURL wraps every rejection from SourceURLValidator.
var ErrInvalidURL = errors.New("invalid source URL")

// SourceURLValidator checks forum and feed URLs before the importer fetches
// them.
type SourceURLValidator struct {
	// AllowLocalhost permits loopback hosts such as a forum running on the
	// developer's machine.
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918 and link-local literals.
	AllowPrivateIPs bool
	MaxLength       int
}

// NewSourceURLValidator blocks local and private hosts.
func NewSourceURLValidator() *SourceURLValidator {
	return &SourceURLValidator{MaxLength: 2048}
}

// NewPermissiveSourceURLValidator allows local hosts, for tests and
// self-hosted forums.
func NewPermissiveSourceURLValidator() *SourceURLValidator {
	return &SourceURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidURL, fmt.Sprintf(format, args...))
}

// Normalize validates input and returns it in canonical form. A missing
// scheme defaults to https.
func (v *SourceURLValidator) Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", invalid("empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", invalid("longer than %d characters", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", invalid("contains forbidden characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", invalid("%v", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid("scheme %q is not http or https", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", invalid("missing host")
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", invalid("path traversal in %q", u.Path)
	}
	if q := strings.ToLower(u.RawQuery); strings.Contains(q, "<script") || strings.Contains(q, "javascript:") {
		return "", invalid("suspicious query")
	}

	return u.String(), nil
}

func (v *SourceURLValidator) checkHost(host string) error {
	if host == "0.0.0.0" || host == "255.255.255.255" {
		return invalid("unroutable host %s", host)
	}
	if isLocalhost(host) {
		if !v.AllowLocalhost {
			return invalid("localhost is not permitted")
		}
		return nil
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		if net.ParseIP(host) == nil && strings.Trim(host, ".-") != host {
			return invalid("malformed host %q", host)
		}
		return nil
	}
	if addr.IsLoopback() && !v.AllowLocalhost {
		return invalid("loopback address %s is not permitted", host)
	}
	if isPrivate(addr) && !v.AllowPrivateIPs {
		return invalid("private address %s is not permitted", host)
	}
	return nil
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" || strings.HasSuffix(host, ".localhost")
}

func isPrivate(addr netip.Addr) bool {
	return addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLoopback()
}
