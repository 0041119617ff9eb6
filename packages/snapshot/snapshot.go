// Package snapshot stores and compares snapshot values for examples.
//
// Snapshots for a suite live in a single JSON file,
// <dir>/__snapshots__/<suite>.snap.json, keyed by the example's full
// description and an optional snapshot name.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
)

const (
	// SnapshotDir is the directory name for storing snapshots
	SnapshotDir = "__snapshots__"
	// SnapshotExt is the file extension for snapshot files
	SnapshotExt = ".snap.json"
	// DefaultSuite is used when a manager is created without a suite name.
	DefaultSuite = "suite"
)

// Manager handles snapshot storage and comparison. It is safe for use from
// the goroutines started by asynchronous examples.
type Manager struct {
	baseDir    string
	suite      string
	updateMode bool

	mu     sync.Mutex
	loaded map[string]any
}

// NewManager creates a snapshot manager rooted at baseDir.
func NewManager(baseDir, suite string, updateMode bool) *Manager {
	if suite == "" {
		suite = DefaultSuite
	}
	return &Manager{
		baseDir:    baseDir,
		suite:      suite,
		updateMode: updateMode,
	}
}

// Result represents the result of a snapshot comparison.
type Result struct {
	Passed     bool
	Message    string
	Expected   any
	Actual     any
	IsNew      bool
	WasUpdated bool
}

// Path returns the snapshot file for the manager's suite.
func (m *Manager) Path() string {
	return filepath.Join(m.baseDir, SnapshotDir, m.suite+SnapshotExt)
}

// UpdateMode reports whether mismatches rewrite the stored value.
func (m *Manager) UpdateMode() bool {
	return m.updateMode
}

// Compare checks actual against the snapshot stored under exampleKey and
// name. Missing snapshots are created in update mode and fail otherwise.
func (m *Manager) Compare(exampleKey, name string, actual any) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &Result{Actual: actual}

	snapshots, err := m.load()
	if err != nil {
		result.Message = fmt.Sprintf("failed to load snapshots: %v", err)
		return result
	}

	key := generateKey(exampleKey, name, actual)
	expected, exists := snapshots[key]
	if !exists {
		if !m.updateMode {
			result.Message = fmt.Sprintf("snapshot %q does not exist (run with --update-snapshots to create)", key)
			return result
		}
		snapshots[key] = actual
		if err := m.save(snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to save snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.IsNew = true
		result.Expected = actual
		result.Message = "new snapshot created"
		return result
	}

	result.Expected = expected
	if Equal(expected, actual) {
		result.Passed = true
		return result
	}

	if m.updateMode {
		snapshots[key] = actual
		if err := m.save(snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to update snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.WasUpdated = true
		result.Message = "snapshot updated"
		return result
	}

	result.Message = fmt.Sprintf("snapshot %q mismatch", key)
	return result
}

// Keys returns the stored snapshot keys in sorted order.
func (m *Manager) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots, err := m.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(snapshots))
	for k := range snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func generateKey(exampleKey, name string, value any) string {
	if name != "" {
		if exampleKey == "" {
			return name
		}
		return exampleKey + "::" + name
	}
	if exampleKey != "" {
		return exampleKey
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
	return "anon_" + hex.EncodeToString(hash[:8])
}

func (m *Manager) load() (map[string]any, error) {
	if m.loaded != nil {
		return m.loaded, nil
	}

	data, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			m.loaded = make(map[string]any)
			return m.loaded, nil
		}
		return nil, err
	}

	snapshots := make(map[string]any)
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", m.Path(), err)
	}
	m.loaded = snapshots
	return snapshots, nil
}

func (m *Manager) save(snapshots map[string]any) error {
	path := m.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}

	m.loaded = snapshots
	return os.WriteFile(path, data, 0644)
}

// Equal compares two values after normalizing both through JSON, so that
// an int and the float64 decoded from a snapshot file compare equal.
func Equal(a, b any) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// Normalize round-trips v through encoding/json. Values that cannot be
// marshaled are returned unchanged.
func Normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
