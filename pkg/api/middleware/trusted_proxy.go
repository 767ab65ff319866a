package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies are the peers whose forwarding headers are believed when
// resolving a client address.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts CIDR ranges and bare addresses. Blank entries
// are skipped. All invalid entries are reported together; the valid ones are
// still returned.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var out TrustedProxies
	var invalid []string

	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, e)
	}

	if len(invalid) > 0 {
		return out, fmt.Errorf("invalid trusted proxy entries: %s", strings.Join(invalid, ", "))
	}
	return out, nil
}

func (tp TrustedProxies) contains(a netip.Addr) bool {
	a = a.Unmap()
	for _, p := range tp {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// Trusts reports whether remoteAddr ("host:port" or a bare address) is a
// trusted proxy.
func (tp TrustedProxies) Trusts(remoteAddr string) bool {
	a, ok := peerAddr(remoteAddr)
	return ok && tp.contains(a)
}

// Resolve returns the client address for r. Forwarding headers count only
// when the direct peer is trusted. X-Real-IP wins; otherwise X-Forwarded-For
// is walked from the right and the first hop that is not itself a trusted
// proxy is taken, so a client cannot pick its own key by prepending entries.
func (tp TrustedProxies) Resolve(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return r.RemoteAddr
	}
	if !tp.contains(peer) {
		return peer.String()
	}

	if a, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return a.Unmap().String()
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		a, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !tp.contains(a) || i == 0 {
			return a.Unmap().String()
		}
	}
	return peer.String()
}

func peerAddr(remoteAddr string) (netip.Addr, bool) {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

// ClientIP keys the rate limiter on the resolved client address.
func ClientIP(tp TrustedProxies) ClientIDFunc {
	return tp.Resolve
}
