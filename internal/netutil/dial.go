// Package netutil provides an SSRF-hardened dial function for the engine's
// default HTTP client, blocking private/loopback targets unless explicitly
// allowed.
package netutil

import (
	"context"
	"fmt"
	"net"
	"os"
)

var privateIPBlocks []*net.IPNet

func init() {
	for _, cidr := range []string{
		"127.0.0.0/8",    // IPv4 loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"169.254.0.0/16", // RFC3927 link-local
		"::1/128",        // IPv6 loopback
		"fe80::/10",      // IPv6 link-local
		"fc00::/7",       // IPv6 unique local
	} {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Errorf("netutil: bad CIDR %q: %v", cidr, err))
		}
		privateIPBlocks = append(privateIPBlocks, block)
	}
}

// IsPrivateIP reports whether ip is unspecified or falls in a loopback,
// link-local, or RFC1918/unique-local range.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, block := range privateIPBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// allowPrivateEnv is read once per dial rather than cached, so tests can
// toggle it with os.Setenv between cases.
const allowPrivateEnv = "RANGEDL_ALLOW_PRIVATE_IPS"

// SafeDialContext returns a DialContext function that resolves the target
// host, drops any private/loopback addresses unless explicitly allowed, and
// dials the remaining candidates in order.
func SafeDialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}

		allowPrivate := os.Getenv(allowPrivateEnv) == "true"

		var safe []string
		for _, ip := range ips {
			if allowPrivate || !IsPrivateIP(ip.IP) {
				safe = append(safe, ip.IP.String())
			}
		}
		if len(safe) == 0 {
			return nil, fmt.Errorf("netutil: blocked access to private IP for host %s", host)
		}

		var firstErr error
		for _, ip := range safe {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return nil, firstErr
	}
}
