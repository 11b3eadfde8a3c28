package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Storage areas. AreaSync holds settings shared by the editor and the daemon.
const (
	AreaSync  = "sync"
	AreaLocal = "local"
)

// Store provides persistence for key/value data grouped by storage area.
type Store interface {
	// Load loads the stored data from disk
	Load() error

	// Save saves the stored data to disk
	Save() error

	// Get retrieves a single value from an area
	Get(area, key string) (interface{}, bool)

	// Set stores a single value in an area
	Set(area, key string, value interface{}) error

	// GetArea retrieves all values of an area
	GetArea(area string) (map[string]interface{}, error)

	// GetAll retrieves all data
	GetAll() (map[string]map[string]interface{}, error)
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	path     string
	data     map[string]map[string]interface{}
	mu       sync.RWMutex
	version  string
	modified bool

	// stamp of the file as of the last Load or Save, used by Reload
	modTime time.Time
	size    int64
}

type fileContents struct {
	Version string                            `json:"version"`
	Areas   map[string]map[string]interface{} `json:"areas"`
}

// DefaultStoragePath returns ~/.tabguard/storage.json.
func DefaultStoragePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tabguard", "storage.json"), nil
}

// NewFileStore creates a new file-based store.
// If path is empty, defaults to ~/.tabguard/storage.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		defaultPath, err := DefaultStoragePath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	store := &FileStore{
		path:    path,
		data:    make(map[string]map[string]interface{}),
		version: "1.0",
	}

	// Try to load existing data, but don't fail if it doesn't exist
	if err := store.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load storage from %s: %w", path, err)
	}

	return store, nil
}

// Load loads the stored data from disk.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, info, err := s.read()
	if err != nil {
		return err
	}
	if contents == nil {
		// File doesn't exist yet, start empty
		s.data = make(map[string]map[string]interface{})
		s.modTime, s.size = time.Time{}, 0
		return nil
	}

	s.apply(contents, info)
	return nil
}

// read decodes the file. A missing file yields nil contents and no error.
func (s *FileStore) read() (*fileContents, os.FileInfo, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open storage file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat storage file: %w", err)
	}

	var contents fileContents
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&contents); err != nil {
		return nil, nil, fmt.Errorf("failed to decode storage file: %w", err)
	}
	return &contents, info, nil
}

func (s *FileStore) apply(contents *fileContents, info os.FileInfo) {
	if contents.Version != "" {
		s.version = contents.Version
	}
	if contents.Areas != nil {
		s.data = contents.Areas
	} else {
		s.data = make(map[string]map[string]interface{})
	}
	s.modified = false
	s.modTime, s.size = info.ModTime(), info.Size()
}

// Save saves the stored data to disk.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Create temp file for atomic write
	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp storage file: %w", err)
	}

	contents := fileContents{
		Version: s.version,
		Areas:   s.data,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(contents); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode storage: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	if info, err := os.Stat(s.path); err == nil {
		s.modTime, s.size = info.ModTime(), info.Size()
	}
	s.modified = false
	return nil
}

// Get retrieves a single value from an area.
func (s *FileStore) Get(area, key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, exists := s.data[area]
	if !exists {
		return nil, false
	}
	value, exists := values[key]
	return value, exists
}

// Set stores a single value in an area. Call Save to persist it.
func (s *FileStore) Set(area, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, exists := s.data[area]
	if !exists {
		values = make(map[string]interface{})
		s.data[area] = values
	}
	values[key] = value
	s.modified = true
	return nil
}

// GetArea retrieves all values of an area.
func (s *FileStore) GetArea(area string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, exists := s.data[area]; exists {
		// Return a copy to prevent external modification
		dataCopy := make(map[string]interface{}, len(data))
		for k, v := range data {
			dataCopy[k] = v
		}
		return dataCopy, nil
	}

	// Return empty map if area doesn't exist
	return make(map[string]interface{}), nil
}

// GetAll retrieves all data.
func (s *FileStore) GetAll() (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAreas(s.data), nil
}

func copyAreas(data map[string]map[string]interface{}) map[string]map[string]interface{} {
	dataCopy := make(map[string]map[string]interface{}, len(data))
	for area, values := range data {
		valuesCopy := make(map[string]interface{}, len(values))
		for k, v := range values {
			valuesCopy[k] = v
		}
		dataCopy[area] = valuesCopy
	}
	return dataCopy
}

// IsModified returns true if the store has unsaved changes.
func (s *FileStore) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
