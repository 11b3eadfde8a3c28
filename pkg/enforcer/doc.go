// Package enforcer keeps the number of open tabs per host within the configured limits
// and keeps every tab's on-page indicator in sync with the current count.
//
// # Architecture
//
// The package is built around two types:
//
// 1. Engine: decides, for one tab, whether its host is over limit and closes the newest
// excess tab; it also computes and pushes the "count/limit" status for a host.
// 2. Router: receives browser lifecycle events, queues them without blocking the
// producer, and runs one handler at a time against the Engine.
//
// # Event handling
//
//   - Tab created or updated (URL, pending URL, or load completion): enforce, then
//     broadcast the tab's host.
//   - Tab removed: broadcast every limited host that still has open tabs.
//   - Limits changed in storage: enforce every open tab, then broadcast each host once.
//   - Status query from a page: answered directly, once, from the live census.
//
// # Consistency
//
// Handlers are not transactional. Two events for the same host can interleave between
// the limits read and the tab census, so a count may be off by one tab until the next
// event. Every mutating handler ends with a broadcast, which makes the displayed counts
// converge. At most one tab is closed per over-limit detection.
package enforcer
