// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// UnknownIP is the identifier used when no candidate parses as an IP address.
const UnknownIP = "unknown"

/*
ClientIP resolves the caller's address for the generic API limiter and audit logs.

The first non-empty candidate wins, in this order: the Client-IP header, the
first hop of X-Forwarded-For, the connection's remote address. The winner must
parse as an IPv4 or IPv6 address, otherwise [UnknownIP] is returned. A malformed
header is not skipped in favour of the next candidate.

The headers are client-supplied. Buckets guarding credentials must use [RemoteIP].
*/
func ClientIP(request *http.Request) string {
	switch {
	case request.Header.Get("Client-IP") != "":
		return normalizeIP(request.Header.Get("Client-IP"))
	case request.Header.Get("X-Forwarded-For") != "":
		first, _, _ := strings.Cut(request.Header.Get("X-Forwarded-For"), ",")
		return normalizeIP(first)
	default:
		return RemoteIP(request)
	}
}

// RemoteIP returns the host of the connection's remote address, ignoring every
// forwarding header. Login, registration and password reset buckets key on it.
func RemoteIP(request *http.Request) string {
	candidate := request.RemoteAddr
	if host, _, err := net.SplitHostPort(candidate); err == nil {
		candidate = host
	}
	return normalizeIP(candidate)
}

func normalizeIP(candidate string) string {
	address, err := netip.ParseAddr(strings.TrimSpace(candidate))
	if err != nil || address.Zone() != "" {
		return UnknownIP
	}
	return address.String()
}
