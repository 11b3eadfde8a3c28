package browser

import (
	"context"
	"errors"

	"github.com/entrhq/tabguard/pkg/enforcer"
)

// ErrTabNotFound is returned when a tab ID does not name an open page.
var ErrTabNotFound = errors.New("tab not found")

const (
	// BindingName is the page-visible function used for status queries
	BindingName = "__tabguardGetSiteStatus"

	// StatusEventName is the DOM event carrying pushed status messages
	StatusEventName = "tabguard:site-status"
)

// Options configures the launched browser.
type Options struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// UserDataDir is the persistent profile directory
	UserDataDir string

	// Channel selects an installed browser ("chrome", "msedge"); empty uses Chromium
	Channel string

	// StartURLs are opened once the browser is up
	StartURLs []string
}

// Sink receives lifecycle events. Push must not block.
type Sink interface {
	Push(ev enforcer.Event)
}

// QueryHandler answers status queries coming from pages.
type QueryHandler func(ctx context.Context, msg enforcer.Message) (enforcer.StatusPayload, error)
