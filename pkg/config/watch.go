package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// DefaultPollInterval is how often Watch checks the storage file.
const DefaultPollInterval = time.Second

// Change lists the keys of one storage area whose values changed on reload.
type Change struct {
	Area string
	Keys []string
}

// Has reports whether key is among the changed keys.
func (c Change) Has(key string) bool {
	for _, k := range c.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Reload re-reads the storage file if it changed on disk since the last Load, Save or
// Reload, replaces the in-memory data and returns the keys whose values differ.
// A file that disappeared reloads as empty.
func (s *FileStore) Reload() ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	switch {
	case os.IsNotExist(err):
		if s.modTime.IsZero() && len(s.data) == 0 {
			return nil, nil
		}
		changes := diffAreas(s.data, nil)
		s.data = make(map[string]map[string]interface{})
		s.modTime, s.size = time.Time{}, 0
		return changes, nil
	case err != nil:
		return nil, fmt.Errorf("failed to stat storage file: %w", err)
	}

	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil, nil
	}

	contents, fresh, err := s.read()
	if err != nil {
		// Remember the bad file so it is reported once, not on every poll.
		s.modTime, s.size = info.ModTime(), info.Size()
		return nil, err
	}
	if contents == nil {
		return nil, nil
	}

	changes := diffAreas(s.data, contents.Areas)
	s.apply(contents, fresh)
	return changes, nil
}

// diffAreas compares values by their JSON encoding. Results are sorted by area and key.
func diffAreas(before, after map[string]map[string]interface{}) []Change {
	areas := make(map[string]struct{})
	for area := range before {
		areas[area] = struct{}{}
	}
	for area := range after {
		areas[area] = struct{}{}
	}

	names := make([]string, 0, len(areas))
	for area := range areas {
		names = append(names, area)
	}
	sort.Strings(names)

	var changes []Change
	for _, area := range names {
		old, cur := before[area], after[area]
		keys := make(map[string]struct{})
		for k := range old {
			keys[k] = struct{}{}
		}
		for k := range cur {
			keys[k] = struct{}{}
		}

		var changed []string
		for k := range keys {
			oldVal, hadOld := old[k]
			curVal, hasCur := cur[k]
			if hadOld != hasCur || !sameJSON(oldVal, curVal) {
				changed = append(changed, k)
			}
		}
		if len(changed) == 0 {
			continue
		}
		sort.Strings(changed)
		changes = append(changes, Change{Area: area, Keys: changed})
	}
	return changes
}

func sameJSON(a, b interface{}) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// Watch polls the store every interval and calls onChange with the keys that changed.
// Reload errors (a half-written or corrupt file) go to onError and the previous
// in-memory data is kept. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, store *FileStore, interval time.Duration, onChange func([]Change), onError func(error)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changes, err := store.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if len(changes) > 0 && onChange != nil {
				onChange(changes)
			}
		}
	}
}
