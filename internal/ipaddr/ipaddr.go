// Package ipaddr converts uploader network addresses to and from the binary
// form kept in the file index: 4 bytes for IPv4, 16 bytes for IPv6.
package ipaddr

import (
	"errors"
	"net"
	"net/netip"
	"strings"
)

// ErrNoAddress is returned when a transport address cannot be parsed.
var ErrNoAddress = errors.New("no client address")

// Encode returns the network-order bytes of addr. IPv4-mapped IPv6
// addresses are stored as plain IPv4.
func Encode(addr netip.Addr) []byte {
	addr = addr.Unmap()
	if addr.Is4() {
		b := addr.As4()
		return b[:]
	}
	b := addr.As16()
	return b[:]
}

// Decode is the inverse of Encode. Any length other than 4 or 16 reports
// false; callers treat that as "no usable record" rather than a fault.
func Decode(b []byte) (netip.Addr, bool) {
	switch len(b) {
	case net.IPv4len:
		return netip.AddrFrom4([4]byte(b)), true
	case net.IPv6len:
		return netip.AddrFrom16([16]byte(b)), true
	default:
		return netip.Addr{}, false
	}
}

// FromRemoteAddr parses the peer address as found in http.Request.RemoteAddr
// ("ip:port", "[ipv6]:port") or a bare IP as set by proxy-header middleware.
func FromRemoteAddr(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, ErrNoAddress
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().WithZone(""), nil
	}
	host := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, ErrNoAddress
	}
	return addr.WithZone(""), nil
}
