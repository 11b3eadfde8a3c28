package enforcer

import (
	"context"

	"github.com/entrhq/tabguard/pkg/limits"
	"github.com/entrhq/tabguard/pkg/tabs"
)

// Broadcast pushes the current count and limit to every tab of host. Unlimited hosts
// get nothing. Per-tab delivery failures are ignored.
func (e *Engine) Broadcast(ctx context.Context, host string) error {
	limit, ok := limits.Load(e.store).Lookup(host)
	if !ok {
		return nil
	}

	matching, err := tabs.ForHost(ctx, e.browser, e.resolver, host)
	if err != nil {
		return err
	}

	status := SiteStatus{
		Type:  MessageSiteStatus,
		Host:  host,
		Count: len(matching),
		Limit: limit,
	}
	for _, tab := range matching {
		if !tab.HasID() {
			continue
		}
		if err := e.browser.SendMessage(ctx, tab.ID, status); err != nil {
			e.logger.Debugf("status for %s not delivered to tab %d: %v", host, tab.ID, err)
		}
	}
	return nil
}

// Status answers a status query for url.
func (e *Engine) Status(ctx context.Context, url string) StatusPayload {
	host, ok := e.resolver.Resolve(url)
	if !ok {
		return NoLimit()
	}

	limit, ok := limits.Load(e.store).Lookup(host)
	if !ok {
		return unlimited(host)
	}

	matching, err := tabs.ForHost(ctx, e.browser, e.resolver, host)
	if err != nil {
		e.logger.Warnf("census for %s failed: %v", host, err)
		return unlimited(host)
	}
	return limited(host, len(matching), limit)
}
