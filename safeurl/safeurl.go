// Package safeurl validates user-supplied URLs before the server fetches
// them, so a reference-image URL cannot be pointed at loopback, private
// networks, or cloud metadata endpoints.
package safeurl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	ErrScheme    = errors.New("scheme must be http or https")
	ErrUserinfo  = errors.New("credentials in URL not allowed")
	ErrEmptyHost = errors.New("URL has no host")
	ErrPort      = errors.New("port not allowed")
	ErrBlockedIP = errors.New("address is in a blocked range")
	ErrResolve   = errors.New("hostname did not resolve")
)

// blockedRanges covers loopback, RFC1918, link-local, CGNAT, multicast,
// reserved and documentation space, plus the IPv6 equivalents. IPv4-mapped
// IPv6 addresses are unmapped before checking, so ::ffff:127.0.0.1 is
// caught by the v4 loopback entry.
var blockedRanges = func() []netip.Prefix {
	cidrs := []string{
		"0.0.0.0/8",
		"10.0.0.0/8",
		"100.64.0.0/10",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"172.16.0.0/12",
		"192.0.0.0/24",
		"192.0.2.0/24",
		"192.168.0.0/16",
		"198.18.0.0/15",
		"198.51.100.0/24",
		"203.0.113.0/24",
		"224.0.0.0/4",
		"240.0.0.0/4",
		"::/128",
		"::1/128",
		"64:ff9b::/96",
		"fc00::/7",
		"fe80::/10",
		"ff00::/8",
	}
	out := make([]netip.Prefix, len(cidrs))
	for i, c := range cidrs {
		out[i] = netip.MustParsePrefix(c)
	}
	return out
}()

func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range blockedRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Validate checks raw syntactically and, when the host is a literal IP in
// any of its spellings (dotted, decimal, octal, hex, mapped v6), against
// the blocked ranges. Hostnames pass Validate on syntax alone; use
// ResolveValidated before actually connecting.
func Validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrScheme
	}
	if u.User != nil {
		return ErrUserinfo
	}
	host := u.Hostname()
	if host == "" {
		return ErrEmptyHost
	}
	switch u.Port() {
	case "", "80", "443":
	default:
		return ErrPort
	}

	if addr, ok := parseHostIP(host); ok {
		if blockedAddr(addr) {
			return fmt.Errorf("%w: %s", ErrBlockedIP, addr)
		}
	}
	return nil
}

// ResolveValidated validates raw and, for hostname URLs, resolves the host
// and checks every returned address. The validated address set is returned
// so the caller can pin the dial target instead of re-resolving, which is
// the DNS-rebinding mitigation.
func ResolveValidated(ctx context.Context, raw string) ([]netip.Addr, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	u, _ := url.Parse(raw)
	host := u.Hostname()

	if addr, ok := parseHostIP(host); ok {
		return []netip.Addr{addr.Unmap()}, nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil || len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrResolve, host)
	}
	for _, addr := range addrs {
		if blockedAddr(addr) {
			return nil, fmt.Errorf("%w: %s resolves to %s", ErrBlockedIP, host, addr)
		}
	}
	return addrs, nil
}

// Client returns an http.Client that re-checks the connect address of
// every dial, including redirects, so a hostname that re-resolves into a
// blocked range after validation still cannot be reached.
func Client(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: timeout,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return err
			}
			if blockedAddr(addr) {
				return fmt.Errorf("%w: %s", ErrBlockedIP, addr)
			}
			return nil
		},
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: dialer.DialContext,
		},
	}
}

// parseHostIP decodes host as a literal IP, accepting the numeric spellings
// that url.Hostname passes through but net.ParseIP rejects: bare decimal
// (2130706433), hex (0x7f000001), octal (017700000001) and short dotted
// forms (127.1), per the inet_aton rules attackers rely on to smuggle
// loopback addresses past naive string checks.
func parseHostIP(host string) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, true
	}
	return parseNumericIPv4(host)
}

func parseNumericIPv4(host string) (netip.Addr, bool) {
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return netip.Addr{}, false
	}
	vals := make([]uint64, len(parts))
	for i, part := range parts {
		if part == "" {
			return netip.Addr{}, false
		}
		// Base 0: 0x → hex, leading 0 → octal, else decimal.
		v, err := strconv.ParseUint(part, 0, 64)
		if err != nil {
			return netip.Addr{}, false
		}
		vals[i] = v
	}

	// All but the last part are single octets; the last part fills the
	// remaining bytes (inet_aton semantics).
	last := vals[len(vals)-1]
	rest := len(parts) - 1
	for _, v := range vals[:rest] {
		if v > 0xff {
			return netip.Addr{}, false
		}
	}
	width := 4 - rest
	if width < 4 && last>>(8*width) != 0 {
		return netip.Addr{}, false
	}
	if width == 4 && last > 0xffffffff {
		return netip.Addr{}, false
	}

	var b [4]byte
	for i := 0; i < rest; i++ {
		b[i] = byte(vals[i])
	}
	for i := 0; i < width; i++ {
		b[3-i] = byte(last >> (8 * i))
	}
	return netip.AddrFrom4(b), true
}
