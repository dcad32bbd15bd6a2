package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// ManifestVersion is the current schema version
	ManifestVersion = 1

	// ManifestFilename is the default manifest filename
	ManifestFilename = "manifest.json"
)

// Manifest records which source files have been loaded into the store.
type Manifest struct {
	Version  int                    `json:"version"`
	LastLoad time.Time              `json:"last_load"`
	Sources  map[string]SourceState `json:"sources"`
	mu       sync.RWMutex           `json:"-"`
}

// SourceState describes one loaded source file.
type SourceState struct {
	Kind     string    `json:"kind"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loaded_at"`
	Error    string    `json:"error,omitempty"`
}

// NewManifest creates a new empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		Sources: make(map[string]SourceState),
	}
}

// LoadManifest reads a manifest from disk, or creates a new one if it doesn't exist.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Sources == nil {
		manifest.Sources = make(map[string]SourceState)
	}

	return &manifest, nil
}

// Save writes the manifest to disk atomically.
func (m *Manifest) Save(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return nil
}

// Unchanged reports whether path was loaded successfully with the same size
// and modification time as info.
func (m *Manifest) Unchanged(path string, info os.FileInfo) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.Sources[path]
	return ok && state.Error == "" && state.Size == info.Size() && state.ModTime.Equal(info.ModTime())
}

// RecordLoad marks path as loaded with the given number of records.
func (m *Manifest) RecordLoad(path, kind string, info os.FileInfo, records int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.Sources[path] = SourceState{
		Kind:     kind,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Records:  records,
		LoadedAt: now,
	}
	m.LastLoad = now
}

// RecordError marks path as failed so that the next run retries it.
func (m *Manifest) RecordError(path, kind string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.Sources[path]
	state.Kind = kind
	state.Error = err.Error()
	m.Sources[path] = state
}

// Source returns the state recorded for path.
func (m *Manifest) Source(path string) (SourceState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.Sources[path]
	return state, ok
}
