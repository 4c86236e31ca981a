package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// proxies matches the addresses allowed to set X-Forwarded-For.
type proxies struct {
	nets []*net.IPNet
}

// newProxies parses IPs and CIDRs. Invalid entries are logged and skipped.
func newProxies(entries []string, logger *slog.Logger) *proxies {
	p := &proxies{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			if strings.Contains(entry, ":") {
				entry += "/128"
			} else {
				entry += "/32"
			}
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warn("invalid trusted proxy", "entry", entry, "error", err)
			continue
		}
		p.nets = append(p.nets, network)
	}
	return p
}

func (p *proxies) trusted(ip net.IP) bool {
	if p == nil || ip == nil {
		return false
	}
	for _, n := range p.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func parseIP(value string) net.IP {
	host := strings.Trim(strings.TrimSpace(value), "\"")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if zone := strings.Index(host, "%"); zone != -1 {
		host = host[:zone]
	}
	return net.ParseIP(host)
}

// clientIP returns the address a session is counted against. Forwarded
// addresses are honoured only when the peer is a trusted proxy; the
// right-most untrusted hop wins.
func clientIP(r *http.Request, p *proxies) string {
	remote := parseIP(r.RemoteAddr)
	if remote == nil {
		return ""
	}
	if !p.trusted(remote) {
		return remote.String()
	}

	var hops []net.IP
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := parseIP(part); ip != nil {
			hops = append(hops, ip)
		}
	}
	if len(hops) == 0 {
		return remote.String()
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !p.trusted(hops[i]) {
			return hops[i].String()
		}
	}
	return hops[0].String()
}
