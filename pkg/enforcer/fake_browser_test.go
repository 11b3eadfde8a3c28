package enforcer

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/limits"
	"github.com/entrhq/tabguard/pkg/tabs"
	"github.com/stretchr/testify/require"
)

var errNoListener = errors.New("could not establish connection: receiving end does not exist")

type sentMessage struct {
	TabID   tabs.TabID
	Message interface{}
}

// fakeBrowser keeps tabs in memory and records closures and messages.
type fakeBrowser struct {
	mu       sync.Mutex
	tabs     []tabs.Tab
	removed  []tabs.TabID
	sent     []sentMessage
	deaf     map[tabs.TabID]bool
	queryErr  error
	removeErr error
}

func newFakeBrowser(open ...tabs.Tab) *fakeBrowser {
	return &fakeBrowser{tabs: open, deaf: make(map[tabs.TabID]bool)}
}

func (b *fakeBrowser) Query(ctx context.Context) ([]tabs.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queryErr != nil {
		return nil, b.queryErr
	}
	return append([]tabs.Tab(nil), b.tabs...), nil
}

func (b *fakeBrowser) Remove(ctx context.Context, id tabs.TabID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.removeErr != nil {
		return b.removeErr
	}
	for i, tab := range b.tabs {
		if tab.ID == id {
			b.tabs = append(b.tabs[:i], b.tabs[i+1:]...)
			b.removed = append(b.removed, id)
			return nil
		}
	}
	return errors.New("no tab with id")
}

func (b *fakeBrowser) SendMessage(ctx context.Context, id tabs.TabID, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deaf[id] {
		return errNoListener
	}
	b.sent = append(b.sent, sentMessage{TabID: id, Message: message})
	return nil
}

func (b *fakeBrowser) open(tab tabs.Tab) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tabs = append(b.tabs, tab)
}

func (b *fakeBrowser) openIDs() []tabs.TabID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]tabs.TabID, 0, len(b.tabs))
	for _, tab := range b.tabs {
		ids = append(ids, tab.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *fakeBrowser) removedIDs() []tabs.TabID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tabs.TabID(nil), b.removed...)
}

func (b *fakeBrowser) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

func (b *fakeBrowser) resetMessages() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = nil
}

func newStore(t *testing.T, entries ...limits.Entry) *config.FileStore {
	t.Helper()
	store, err := config.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	setLimits(t, store, entries...)
	return store
}

func setLimits(t *testing.T, store *config.FileStore, entries ...limits.Entry) {
	t.Helper()
	list := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]interface{}{"host": e.Host, "limit": float64(e.Limit)})
	}
	require.NoError(t, store.Set(config.AreaSync, limits.StorageKey, list))
}

func tab(id int, url string) tabs.Tab {
	return tabs.Tab{ID: tabs.TabID(id), URL: url}
}
