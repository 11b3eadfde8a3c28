// Package browser drives a Chromium profile through Playwright and exposes its pages as
// tabs to the enforcer.
//
// # Architecture
//
// The package is built around two pieces:
//
// 1. Driver: owns the Playwright instance and a persistent browser context, installs the
// on-page indicator and the status-query binding, and translates page events into
// enforcer events.
// 2. registry: the driver's view of open pages, with tab IDs assigned from a counter in
// page creation order, so a larger ID always means a newer tab.
//
// # Event mapping
//
//   - context "page"                        -> TabCreated
//   - main-frame navigation request         -> TabUpdated (pending URL)
//   - main-frame "framenavigated"           -> TabUpdated (URL)
//   - page "load"                           -> TabUpdated (status complete)
//   - page "close"                          -> TabRemoved
//
// Playwright invokes these callbacks on its dispatch goroutine. The driver never calls
// back into Playwright from a callback; it only updates the registry and pushes to a
// non-blocking sink.
//
// # Page messaging
//
// Status pushes are delivered by evaluating a CustomEvent dispatch in the page. Pages ask
// for their status through the exposed binding __tabguardGetSiteStatus.
package browser
