package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/entrhq/tabguard/pkg/enforcer"
	"github.com/entrhq/tabguard/pkg/logging"
	"github.com/entrhq/tabguard/pkg/tabs"
	"github.com/playwright-community/playwright-go"
)

// MessageTimeout bounds a single SendMessage delivery.
const MessageTimeout = 5 * time.Second

//go:embed indicator.js
var indicatorJS string

// dispatchScript delivers a pushed message to the page's indicator.
var dispatchScript = fmt.Sprintf(
	`detail => window.dispatchEvent(new CustomEvent(%q, { detail }))`, StatusEventName)

// Driver runs a persistent Chromium context and implements tabs.Browser over its pages.
type Driver struct {
	mu       sync.Mutex
	opts     Options
	sink     Sink
	query    QueryHandler
	logger   *logging.Logger
	registry *registry

	pw      *playwright.Playwright
	context playwright.BrowserContext
	done    chan struct{}
	once    sync.Once
	started bool
}

var _ tabs.Browser = (*Driver)(nil)

// NewDriver creates a driver. Nothing is launched until Start.
func NewDriver(opts Options, logger *logging.Logger) *Driver {
	if logger == nil {
		logger = logging.New("browser", io.Discard)
	}
	return &Driver{
		opts:     opts,
		logger:   logger,
		registry: newRegistry(),
		done:     make(chan struct{}),
	}
}

// Start installs Playwright if needed, launches the browser and begins reporting events.
// Lifecycle events go to sink and page status queries to query.
func (d *Driver) Start(ctx context.Context, sink Sink, query QueryHandler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}
	if sink == nil {
		return fmt.Errorf("event sink is required")
	}
	if d.opts.UserDataDir == "" {
		return fmt.Errorf("user data directory is required")
	}
	d.sink = sink
	d.query = query

	// Keep the driver quiet on stdout; the daemon logs to its own file
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(d.opts.Headless),
	}
	if d.opts.Channel != "" {
		launchOpts.Channel = playwright.String(d.opts.Channel)
	}
	bctx, err := pw.Chromium.LaunchPersistentContext(d.opts.UserDataDir, launchOpts)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(indicatorJS)}); err != nil {
		_ = bctx.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to install indicator: %w", err)
	}
	if err := bctx.ExposeBinding(BindingName, d.handleBinding); err != nil {
		_ = bctx.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to expose %s: %w", BindingName, err)
	}

	bctx.OnPage(d.attach)
	bctx.OnClose(func(playwright.BrowserContext) {
		d.once.Do(func() { close(d.done) })
	})
	for _, page := range bctx.Pages() {
		d.attach(page)
	}

	d.pw = pw
	d.context = bctx
	d.started = true
	d.logger.Infof("browser started (headless=%t, profile=%s)", d.opts.Headless, d.opts.UserDataDir)

	for _, url := range d.opts.StartURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := bctx.NewPage()
		if err != nil {
			d.logger.Warnf("failed to open %s: %v", url, err)
			continue
		}
		if _, err := page.Goto(url); err != nil {
			d.logger.Warnf("failed to navigate to %s: %v", url, err)
		}
	}

	return nil
}

// Done is closed when the browser context goes away, for example when the user quits the
// browser.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Close shuts down the browser and the Playwright driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}
	d.started = false

	_ = d.context.Close() // Ignore errors, continue cleanup
	err := d.pw.Stop()
	d.once.Do(func() { close(d.done) })
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// Query returns every open tab.
func (d *Driver) Query(ctx context.Context) ([]tabs.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.registry.snapshot(), nil
}

// Remove closes the page behind a tab.
func (d *Driver) Remove(ctx context.Context, id tabs.TabID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, ok := d.registry.page(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	if err := page.Close(); err != nil {
		return fmt.Errorf("failed to close tab %d: %w", id, err)
	}
	return nil
}

// SendMessage dispatches message to the tab's indicator as a DOM event.
func (d *Driver) SendMessage(ctx context.Context, id tabs.TabID, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, ok := d.registry.page(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	detail, err := toJSONValue(message)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, MessageTimeout)
	defer cancel()

	// Evaluate takes no context; a stuck page must not hold up the caller
	done := make(chan error, 1)
	go func() {
		_, err := page.Evaluate(dispatchScript, detail)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to deliver message to tab %d: %w", id, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to deliver message to tab %d: %w", id, ctx.Err())
	}
}

// attach registers a page and wires its lifecycle callbacks.
func (d *Driver) attach(page playwright.Page) {
	tab, added := d.registry.add(page, page.URL())
	if !added {
		return
	}
	d.logger.Debugf("tab %d opened at %s", tab.ID, tab.URL)

	page.OnRequest(func(req playwright.Request) {
		if !req.IsNavigationRequest() || req.Frame() != page.MainFrame() {
			return
		}
		if tab, ok := d.registry.setPending(page, req.URL()); ok {
			d.sink.Push(enforcer.TabUpdated{Tab: tab, Change: enforcer.TabChange{PendingURL: tab.PendingURL}})
		}
	})
	page.OnRequestFailed(func(req playwright.Request) {
		if !req.IsNavigationRequest() || req.Frame() != page.MainFrame() {
			return
		}
		d.registry.clearPending(page, req.URL())
	})
	page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame != page.MainFrame() {
			return
		}
		if tab, change, ok := d.registry.commit(page, frame.URL()); ok {
			d.sink.Push(enforcer.TabUpdated{Tab: tab, Change: change})
		}
	})
	page.OnLoad(func(playwright.Page) {
		if tab, ok := d.registry.get(page); ok {
			d.sink.Push(enforcer.TabUpdated{Tab: tab, Change: enforcer.TabChange{Status: enforcer.StatusComplete}})
		}
	})
	page.OnClose(func(playwright.Page) {
		if id, ok := d.registry.remove(page); ok {
			d.logger.Debugf("tab %d closed", id)
			d.sink.Push(enforcer.TabRemoved{TabID: id})
		}
	})

	d.sink.Push(enforcer.TabCreated{Tab: tab})
}

// handleBinding answers __tabguardGetSiteStatus calls from pages.
func (d *Driver) handleBinding(source *playwright.BindingSource, args ...interface{}) interface{} {
	msg, err := decodeMessage(args)
	if err != nil {
		d.logger.Debugf("bad status query: %v", err)
		return nil
	}
	if d.query == nil {
		return nil
	}
	payload, err := d.query(context.Background(), msg)
	if err != nil {
		d.logger.Debugf("status query failed: %v", err)
		return nil
	}
	out, err := toJSONValue(payload)
	if err != nil {
		return nil
	}
	return out
}

// decodeMessage converts the first binding argument into a Message.
func decodeMessage(args []interface{}) (enforcer.Message, error) {
	var msg enforcer.Message
	if len(args) == 0 {
		return msg, fmt.Errorf("missing message argument")
	}
	data, err := json.Marshal(args[0])
	if err != nil {
		return msg, fmt.Errorf("failed to encode message: %w", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("malformed message: %w", err)
	}
	return msg, nil
}

// toJSONValue converts v to plain maps and slices so it crosses into the page intact.
func toJSONValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
