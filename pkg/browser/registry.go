package browser

import (
	"sort"
	"sync"

	"github.com/entrhq/tabguard/pkg/enforcer"
	"github.com/entrhq/tabguard/pkg/tabs"
	"github.com/playwright-community/playwright-go"
)

type tabState struct {
	id      tabs.TabID
	page    playwright.Page
	url     string
	pending string
}

func (s *tabState) tab() tabs.Tab {
	return tabs.Tab{ID: s.id, URL: s.url, PendingURL: s.pending}
}

// registry tracks open pages. IDs come from a counter and are never reused.
type registry struct {
	mu     sync.RWMutex
	nextID tabs.TabID
	byID   map[tabs.TabID]*tabState
	byPage map[playwright.Page]*tabState
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[tabs.TabID]*tabState),
		byPage: make(map[playwright.Page]*tabState),
	}
}

// add registers a page and returns its tab. Adding a known page returns the existing tab.
func (r *registry) add(page playwright.Page, url string) (tabs.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, exists := r.byPage[page]; exists {
		return state.tab(), false
	}

	r.nextID++
	state := &tabState{id: r.nextID, page: page, url: url}
	r.byID[state.id] = state
	r.byPage[page] = state
	return state.tab(), true
}

func (r *registry) remove(page playwright.Page) (tabs.TabID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.byPage[page]
	if !exists {
		return tabs.NoID, false
	}
	delete(r.byPage, page)
	delete(r.byID, state.id)
	return state.id, true
}

// setPending records an in-flight main-frame navigation.
func (r *registry) setPending(page playwright.Page, url string) (tabs.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.byPage[page]
	if !exists || state.pending == url || state.url == url {
		return tabs.Tab{}, false
	}
	state.pending = url
	return state.tab(), true
}

// clearPending drops an in-flight navigation that failed or was aborted.
func (r *registry) clearPending(page playwright.Page, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.byPage[page]
	if !exists || state.pending == "" || state.pending != url {
		return false
	}
	state.pending = ""
	return true
}

// commit records a committed main-frame URL and clears the pending one.
func (r *registry) commit(page playwright.Page, url string) (tabs.Tab, enforcer.TabChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.byPage[page]
	if !exists {
		return tabs.Tab{}, enforcer.TabChange{}, false
	}

	var change enforcer.TabChange
	if state.url != url {
		change.URL = url
	}
	state.url = url
	state.pending = ""
	return state.tab(), change, true
}

func (r *registry) get(page playwright.Page) (tabs.Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.byPage[page]
	if !exists {
		return tabs.Tab{}, false
	}
	return state.tab(), true
}

func (r *registry) page(id tabs.TabID) (playwright.Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.byID[id]
	if !exists {
		return nil, false
	}
	return state.page, true
}

// snapshot returns all open tabs ordered by ID.
func (r *registry) snapshot() []tabs.Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tabs.Tab, 0, len(r.byID))
	for _, state := range r.byID {
		out = append(out, state.tab())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
