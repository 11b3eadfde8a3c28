package enforcer

import (
	"context"
	"io"

	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/hostname"
	"github.com/entrhq/tabguard/pkg/limits"
	"github.com/entrhq/tabguard/pkg/logging"
	"github.com/entrhq/tabguard/pkg/tabs"
)

// Engine enforces per-host tab limits and broadcasts host status.
// It holds no state between calls: limits and tabs are read fresh every time.
type Engine struct {
	browser  tabs.Browser
	store    config.Store
	resolver *hostname.Resolver
	logger   *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the host resolver. Defaults to hostname.Default().
func WithResolver(r *hostname.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithLogger sets the logger. Defaults to a logger that discards output.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine over a browser and the limits store.
func NewEngine(browser tabs.Browser, store config.Store, opts ...Option) *Engine {
	e := &Engine{
		browser:  browser,
		store:    store,
		resolver: hostname.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.New("enforcer", io.Discard)
	}
	return e
}

// Resolver returns the engine's host resolver.
func (e *Engine) Resolver() *hostname.Resolver {
	return e.resolver
}

// Result describes what one enforcement call did.
type Result struct {
	// Host is the tab's canonical host, empty when it has none
	Host string

	// Limit is the host's limit, zero when the host is not limited
	Limit int

	// Count is the number of tabs on the host before any closure
	Count int

	// Closed is the tab that was closed, tabs.NoID when none was
	Closed tabs.TabID

	// Broadcast reports whether the host status was pushed
	Broadcast bool
}

// Enforce checks the tab's host against its limit, closes the newest excess tab when
// the host is over limit, and broadcasts the host status. Tabs without a host or
// without a configured limit are ignored.
func (e *Engine) Enforce(ctx context.Context, tab *tabs.Tab) Result {
	return e.enforce(ctx, tab, true)
}

// EnforceQuiet is Enforce without the closing broadcast, for callers that broadcast a
// deduplicated host set themselves.
func (e *Engine) EnforceQuiet(ctx context.Context, tab *tabs.Tab) Result {
	return e.enforce(ctx, tab, false)
}

func (e *Engine) enforce(ctx context.Context, tab *tabs.Tab, broadcast bool) Result {
	if tab == nil {
		return Result{}
	}

	host, ok := tabs.HostOf(e.resolver, *tab)
	if !ok {
		return Result{}
	}
	res := Result{Host: host}

	limit, ok := limits.Load(e.store).Lookup(host)
	if !ok {
		return res
	}
	res.Limit = limit

	matching, err := tabs.ForHost(ctx, e.browser, e.resolver, host)
	if err != nil {
		e.logger.Warnf("census for %s failed: %v", host, err)
		return res
	}
	res.Count = len(matching)

	if res.Count > limit {
		res.Closed = e.closeExcess(ctx, host, limit, matching)
	}

	if broadcast {
		if err := e.Broadcast(ctx, host); err != nil {
			e.logger.Warnf("broadcast for %s failed: %v", host, err)
		}
		res.Broadcast = true
	}
	return res
}

// SelectExcess picks the tab to close among a host's tabs: the one with the largest
// ID, which the browser assigns in creation order.
func SelectExcess(matching []tabs.Tab) (tabs.Tab, bool) {
	return tabs.Newest(matching)
}

func (e *Engine) closeExcess(ctx context.Context, host string, limit int, matching []tabs.Tab) tabs.TabID {
	victim, ok := SelectExcess(matching)
	if !ok {
		e.logger.Debugf("%s over limit (%d > %d) but no tab has an id", host, len(matching), limit)
		return tabs.NoID
	}

	e.logger.Infof("closing tab %d on %s (%d > %d)", victim.ID, host, len(matching), limit)
	if err := e.browser.Remove(ctx, victim.ID); err != nil {
		e.logger.Warnf("failed to close tab %d on %s: %v", victim.ID, host, err)
		return tabs.NoID
	}
	return victim.ID
}
