package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeStorageFile(t *testing.T, path string, areas map[string]map[string]interface{}) {
	t.Helper()

	contents := map[string]interface{}{
		"version": "1.0",
		"areas":   areas,
	}
	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal storage: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write storage file: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	t.Run("creates store with custom path", func(t *testing.T) {
		storagePath := filepath.Join(t.TempDir(), "storage.json")

		store, err := NewFileStore(storagePath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		if store.Path() != storagePath {
			t.Errorf("Expected path %s, got %s", storagePath, store.Path())
		}

		if store.IsModified() {
			t.Error("New store should not be modified")
		}
	})

	t.Run("uses default path when empty", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		store, err := NewFileStore("")
		if err != nil {
			t.Fatalf("NewFileStore with empty path failed: %v", err)
		}

		expectedPath, _ := DefaultStoragePath()
		if store.Path() != expectedPath {
			t.Errorf("Expected default path %s, got %s", expectedPath, store.Path())
		}
	})

	t.Run("loads existing storage file", func(t *testing.T) {
		storagePath := filepath.Join(t.TempDir(), "storage.json")
		writeStorageFile(t, storagePath, map[string]map[string]interface{}{
			AreaSync: {"siteLimits": []interface{}{
				map[string]interface{}{"host": "example.com", "limit": 2},
			}},
		})

		store, err := NewFileStore(storagePath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		value, ok := store.Get(AreaSync, "siteLimits")
		if !ok {
			t.Fatal("Expected siteLimits to be loaded")
		}
		list, ok := value.([]interface{})
		if !ok || len(list) != 1 {
			t.Fatalf("Expected one-element list, got %#v", value)
		}
	})

	t.Run("fails on invalid JSON", func(t *testing.T) {
		storagePath := filepath.Join(t.TempDir(), "storage.json")
		if err := os.WriteFile(storagePath, []byte("{not json"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		if _, err := NewFileStore(storagePath); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})
}

func TestFileStore_Load(t *testing.T) {
	t.Run("handles non-existent file", func(t *testing.T) {
		store := &FileStore{path: filepath.Join(t.TempDir(), "missing.json")}
		if err := store.Load(); err != nil {
			t.Fatalf("Load should not fail for missing file: %v", err)
		}

		all, _ := store.GetAll()
		if len(all) != 0 {
			t.Errorf("Expected empty data, got %v", all)
		}
	})

	t.Run("handles file without areas", func(t *testing.T) {
		storagePath := filepath.Join(t.TempDir(), "storage.json")
		if err := os.WriteFile(storagePath, []byte(`{"version":"1.0"}`), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		store := &FileStore{path: storagePath}
		if err := store.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if _, ok := store.Get(AreaSync, "siteLimits"); ok {
			t.Error("Expected no value")
		}
	})
}

func TestFileStore_Save(t *testing.T) {
	t.Run("saves and reloads values", func(t *testing.T) {
		storagePath := filepath.Join(t.TempDir(), "storage.json")

		store, err := NewFileStore(storagePath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		_ = store.Set(AreaSync, "siteLimits", []interface{}{
			map[string]interface{}{"host": "example.com", "limit": 3},
		})
		if !store.IsModified() {
			t.Error("Store should be modified after Set")
		}

		if err := store.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if store.IsModified() {
			t.Error("Store should not be modified after Save")
		}

		reloaded, err := NewFileStore(storagePath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		value, ok := reloaded.Get(AreaSync, "siteLimits")
		if !ok {
			t.Fatal("Expected saved value")
		}
		entry := value.([]interface{})[0].(map[string]interface{})
		if entry["host"] != "example.com" || entry["limit"] != float64(3) {
			t.Errorf("Unexpected entry after reload: %#v", entry)
		}
	})

	t.Run("creates directory if needed", func(t *testing.T) {
		storagePath := filepath.Join(t.TempDir(), "nested", "dir", "storage.json")

		store := &FileStore{path: storagePath, data: make(map[string]map[string]interface{}), version: "1.0"}
		if err := store.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		if _, err := os.Stat(storagePath); err != nil {
			t.Errorf("Storage file not created: %v", err)
		}
		if _, err := os.Stat(storagePath + ".tmp"); !os.IsNotExist(err) {
			t.Error("Temp file should be gone after Save")
		}
	})
}

func TestFileStore_GetArea(t *testing.T) {
	t.Run("returns empty map for missing area", func(t *testing.T) {
		store, _ := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))

		area, err := store.GetArea(AreaLocal)
		if err != nil {
			t.Fatalf("GetArea failed: %v", err)
		}
		if len(area) != 0 {
			t.Errorf("Expected empty area, got %v", area)
		}
	})

	t.Run("returns copy to prevent external modification", func(t *testing.T) {
		store, _ := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
		_ = store.Set(AreaSync, "key", "value")

		area, _ := store.GetArea(AreaSync)
		area["key"] = "modified"

		value, _ := store.Get(AreaSync, "key")
		if value != "value" {
			t.Error("External modification affected stored data")
		}
	})
}

func TestFileStore_GetAll(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	_ = store.Set(AreaSync, "a", 1)
	_ = store.Set(AreaLocal, "b", 2)

	all, err := store.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 areas, got %d", len(all))
	}

	all[AreaSync]["a"] = 99
	value, _ := store.Get(AreaSync, "a")
	if value != 1 {
		t.Error("GetAll should return a deep copy")
	}
}
