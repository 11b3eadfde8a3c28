package limits

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/entrhq/tabguard/pkg/hostname"
)

// NormalizeHost turns user input into a canonical host. Input may be a bare host
// ("Example.com") or a full URL ("https://www.example.com/path").
func NormalizeHost(input string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return "", false
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	host := hostname.Canonical(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

// ParseLimit parses a limit typed by the user. It must be a finite number > 0 and is
// floored; results below 1 are rejected.
func ParseLimit(input string) (int, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return coerceLimit(n)
}

// NewEntry validates a host/limit pair as typed into the settings editor.
func NewEntry(host, limit string) (Entry, error) {
	normalized, ok := NormalizeHost(host)
	if !ok {
		return Entry{}, fmt.Errorf("invalid hostname %q", host)
	}
	n, ok := ParseLimit(limit)
	if !ok {
		return Entry{}, fmt.Errorf("invalid limit %q", limit)
	}
	return Entry{Host: normalized, Limit: n}, nil
}
