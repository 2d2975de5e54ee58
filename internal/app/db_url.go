package app

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeDBURL disables TLS for loopback databases when the URL does not
// choose an sslmode. lib/pq defaults to sslmode=require, which local
// containers do not serve.
func NormalizeDBURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return trimmed
	}

	query := parsed.Query()
	if query.Get("sslmode") != "" || !isLoopbackHost(parsed.Hostname()) {
		return trimmed
	}
	query.Set("sslmode", "disable")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
