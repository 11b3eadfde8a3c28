package enforcer

import (
	"context"
	"fmt"

	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/limits"
	"github.com/entrhq/tabguard/pkg/logging"
	"github.com/entrhq/tabguard/pkg/tabs"
)

// Router feeds browser lifecycle events to an Engine one at a time.
type Router struct {
	engine  *Engine
	browser tabs.Browser
	logger  *logging.Logger
	queue   *eventQueue
}

// NewRouter creates a router over an engine. The router shares the engine's browser,
// store and logger.
func NewRouter(engine *Engine) *Router {
	return &Router{
		engine:  engine,
		browser: engine.browser,
		logger:  engine.logger.With("router"),
		queue:   newEventQueue(),
	}
}

// Push queues an event. It never blocks.
func (r *Router) Push(ev Event) {
	r.queue.push(ev)
}

// Pending returns the number of queued events.
func (r *Router) Pending() int {
	return r.queue.len()
}

// Run handles queued events until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	for {
		ev, err := r.queue.pop(ctx)
		if err != nil {
			return err
		}
		r.Handle(ctx, ev)
	}
}

// Handle processes one event to completion.
func (r *Router) Handle(ctx context.Context, ev Event) {
	r.logger.Debugf("handling %s", ev.eventName())

	switch e := ev.(type) {
	case TabCreated:
		r.onTabChanged(ctx, e.Tab)
	case TabUpdated:
		if !e.Change.Relevant() {
			return
		}
		r.onTabChanged(ctx, e.Tab)
	case TabRemoved:
		r.onTabRemoved(ctx)
	case StorageChanged:
		if e.Area != config.AreaSync || !containsKey(e.Keys, limits.StorageKey) {
			return
		}
		r.onLimitsChanged(ctx)
	default:
		r.logger.Warnf("ignoring unknown event %T", ev)
	}
}

// HandleQuery answers an inbound page message. It is safe to call concurrently with Run.
func (r *Router) HandleQuery(ctx context.Context, msg Message) (StatusPayload, error) {
	if msg.Type != MessageGetSiteStatus {
		return StatusPayload{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return r.engine.Status(ctx, msg.URL), nil
}

func (r *Router) onTabChanged(ctx context.Context, tab tabs.Tab) {
	res := r.engine.Enforce(ctx, &tab)
	if res.Broadcast || res.Host == "" {
		return
	}
	r.broadcast(ctx, res.Host)
}

// onTabRemoved refreshes every limited host that still has tabs; the removed tab
// itself is already gone from the census.
func (r *Router) onTabRemoved(ctx context.Context) {
	snapshot, err := r.browser.Query(ctx)
	if err != nil {
		r.logger.Warnf("tab query failed: %v", err)
		return
	}

	table := limits.Load(r.engine.store)
	for _, host := range tabs.Hosts(r.engine.resolver, snapshot) {
		if _, ok := table.Lookup(host); ok {
			r.broadcast(ctx, host)
		}
	}
}

// onLimitsChanged re-enforces every open tab, since a new or lowered limit can make
// existing tabs excess, then refreshes each host once.
func (r *Router) onLimitsChanged(ctx context.Context) {
	snapshot, err := r.browser.Query(ctx)
	if err != nil {
		r.logger.Warnf("tab query failed: %v", err)
		return
	}

	for i := range snapshot {
		r.engine.EnforceQuiet(ctx, &snapshot[i])
	}
	for _, host := range tabs.Hosts(r.engine.resolver, snapshot) {
		r.broadcast(ctx, host)
	}
}

func (r *Router) broadcast(ctx context.Context, host string) {
	if err := r.engine.Broadcast(ctx, host); err != nil {
		r.logger.Warnf("broadcast for %s failed: %v", host, err)
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
