// Package limits reads and writes the per-host tab limits kept in shared storage.
//
// The persisted record is an ordered list of {host, limit} objects under the
// "siteLimits" key of the sync storage area. Readers are lenient: malformed entries
// are dropped at read time and never written back corrected.
package limits

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/hostname"
)

// StorageKey is the key of the limits list inside config.AreaSync.
const StorageKey = "siteLimits"

// Entry is a single host limit.
type Entry struct {
	Host  string `json:"host"`
	Limit int    `json:"limit"`
}

// Table maps canonical hosts to their limit.
type Table map[string]int

// Lookup returns the limit for host, if any.
func (t Table) Lookup(host string) (int, bool) {
	limit, ok := t[host]
	return limit, ok
}

// Load builds the limit table from the current store contents. It is meant to be
// called per decision rather than cached.
func Load(store config.Store) Table {
	raw, _ := store.Get(config.AreaSync, StorageKey)
	return Parse(raw)
}

// Parse builds a table from the raw persisted value. Later duplicates win.
func Parse(raw interface{}) Table {
	table := make(Table)
	for _, entry := range parseEntries(raw) {
		table[entry.Host] = entry.Limit
	}
	return table
}

// Entries returns the valid stored entries in stored order, duplicates included.
func Entries(store config.Store) []Entry {
	raw, _ := store.Get(config.AreaSync, StorageKey)
	return parseEntries(raw)
}

func parseEntries(raw interface{}) []Entry {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	entries := make([]Entry, 0, len(list))
	for _, item := range list {
		entry, ok := parseEntry(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseEntry(item interface{}) (Entry, bool) {
	fields, ok := item.(map[string]interface{})
	if !ok {
		return Entry{}, false
	}

	host, ok := fields["host"].(string)
	if !ok {
		return Entry{}, false
	}
	host = hostname.Canonical(host)
	if host == "" {
		return Entry{}, false
	}

	limit, ok := coerceLimit(fields["limit"])
	if !ok {
		return Entry{}, false
	}
	return Entry{Host: host, Limit: limit}, true
}

// coerceLimit converts a stored limit to a positive integer. The value must be
// finite and > 0 before flooring, and at least 1 after. Values beyond the range of int
// saturate at math.MaxInt.
func coerceLimit(value interface{}) (int, bool) {
	n, ok := toNumber(value)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0, false
	}

	floored := math.Floor(n)
	if floored < 1 {
		return 0, false
	}
	if floored >= float64(math.MaxInt) {
		return math.MaxInt, true
	}
	return int(floored), true
}

// toNumber follows loose numeric coercion: numbers as-is, numeric strings parsed,
// empty strings and null as zero, booleans as 1 or 0.
func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case fmt.Stringer:
		return toNumber(v.String())
	default:
		return 0, false
	}
}

// Save replaces the stored list with entries and persists the store.
func Save(store config.Store, entries []Entry) error {
	list := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		list = append(list, map[string]interface{}{
			"host":  entry.Host,
			"limit": entry.Limit,
		})
	}

	if err := store.Set(config.AreaSync, StorageKey, list); err != nil {
		return fmt.Errorf("failed to set limits: %w", err)
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save limits: %w", err)
	}
	return nil
}
