// Package tabs defines the read-only tab view used by the enforcer, the browser port
// it drives, and the census helpers that group tabs by canonical host.
package tabs

import (
	"context"
	"sort"

	"github.com/entrhq/tabguard/pkg/hostname"
)

// TabID identifies an open tab. Zero means the browser has not assigned one.
type TabID int

// NoID is the zero TabID.
const NoID TabID = 0

// Tab is a snapshot of an open tab.
type Tab struct {
	ID TabID `json:"id"`

	// URL is the committed URL
	URL string `json:"url"`

	// PendingURL is the navigation target while a navigation is in flight
	PendingURL string `json:"pendingUrl,omitempty"`
}

// HasID reports whether the browser assigned an identifier to the tab.
func (t Tab) HasID() bool {
	return t.ID != NoID
}

// EffectiveURL returns the pending URL when set, since a tab mid-navigation counts at
// its destination, otherwise the committed URL.
func (t Tab) EffectiveURL() string {
	if t.PendingURL != "" {
		return t.PendingURL
	}
	return t.URL
}

// Browser is the set of browser operations the enforcer needs.
type Browser interface {
	// Query enumerates every open tab across all windows
	Query(ctx context.Context) ([]Tab, error)

	// Remove closes a tab
	Remove(ctx context.Context, id TabID) error

	// SendMessage delivers a message to the page in a tab
	SendMessage(ctx context.Context, id TabID, message interface{}) error
}

// HostOf resolves the canonical host of a tab.
func HostOf(r *hostname.Resolver, tab Tab) (string, bool) {
	return r.Resolve(tab.EffectiveURL())
}

// ForHost enumerates open tabs and keeps those whose host equals host.
func ForHost(ctx context.Context, b Browser, r *hostname.Resolver, host string) ([]Tab, error) {
	all, err := b.Query(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(r, all, host), nil
}

// Filter keeps the tabs of a snapshot whose host equals host.
func Filter(r *hostname.Resolver, all []Tab, host string) []Tab {
	var matching []Tab
	for _, tab := range all {
		if h, ok := HostOf(r, tab); ok && h == host {
			matching = append(matching, tab)
		}
	}
	return matching
}

// HostGroup is the set of tabs sharing a canonical host at one point in time.
type HostGroup struct {
	Host string
	Tabs []Tab
}

// GroupByHost groups a snapshot by host. Tabs without a host are left out and groups
// are ordered by host.
func GroupByHost(r *hostname.Resolver, all []Tab) []HostGroup {
	index := make(map[string]int)
	var groups []HostGroup
	for _, tab := range all {
		host, ok := HostOf(r, tab)
		if !ok {
			continue
		}
		i, seen := index[host]
		if !seen {
			i = len(groups)
			index[host] = i
			groups = append(groups, HostGroup{Host: host})
		}
		groups[i].Tabs = append(groups[i].Tabs, tab)
	}

	sort.Slice(groups, func(a, b int) bool { return groups[a].Host < groups[b].Host })
	return groups
}

// Hosts returns the sorted, deduplicated hosts present in a snapshot.
func Hosts(r *hostname.Resolver, all []Tab) []string {
	groups := GroupByHost(r, all)
	hosts := make([]string, 0, len(groups))
	for _, g := range groups {
		hosts = append(hosts, g.Host)
	}
	return hosts
}

// Newest returns the tab with the numerically largest ID, ignoring tabs without one.
func Newest(candidates []Tab) (Tab, bool) {
	var newest Tab
	found := false
	for _, tab := range candidates {
		if !tab.HasID() {
			continue
		}
		if !found || tab.ID > newest.ID {
			newest = tab
			found = true
		}
	}
	return newest, found
}
