package enforcer

import (
	"github.com/entrhq/tabguard/pkg/tabs"
)

// StatusComplete is the tab status reported when a page finished loading.
const StatusComplete = "complete"

// Event is a browser lifecycle event handled by the Router.
type Event interface {
	eventName() string
}

// TabCreated is emitted when a tab opens.
type TabCreated struct {
	Tab tabs.Tab
}

// TabChange lists what changed in a TabUpdated event. Empty fields did not change.
type TabChange struct {
	URL        string
	Status     string
	PendingURL string
}

// Relevant reports whether the change can move the tab to another host or finish a
// navigation.
func (c TabChange) Relevant() bool {
	return c.URL != "" || c.Status == StatusComplete || c.PendingURL != ""
}

// TabUpdated is emitted when a tab's URL, pending URL, or load status changes.
type TabUpdated struct {
	Tab    tabs.Tab
	Change TabChange
}

// TabRemoved is emitted after a tab closed.
type TabRemoved struct {
	TabID tabs.TabID
}

// StorageChanged is emitted when keys of a storage area changed.
type StorageChanged struct {
	Area string
	Keys []string
}

func (TabCreated) eventName() string     { return "tab-created" }
func (TabUpdated) eventName() string     { return "tab-updated" }
func (TabRemoved) eventName() string     { return "tab-removed" }
func (StorageChanged) eventName() string { return "storage-changed" }
