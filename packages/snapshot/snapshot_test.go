package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Compare_NewSnapshot(t *testing.T) {
	dir := t.TempDir()
	manager := NewManager(dir, "users", true)

	result := manager.Compare("users fetches a user", "", map[string]any{
		"id":   1,
		"name": "John",
	})

	assert.True(t, result.Passed, result.Message)
	assert.True(t, result.IsNew)
	assert.FileExists(t, filepath.Join(dir, SnapshotDir, "users.snap.json"))
}

func TestManager_Compare_Match(t *testing.T) {
	dir := t.TempDir()
	data := map[string]any{"id": 1, "name": "John"}

	result := NewManager(dir, "users", true).Compare("users get", "body", data)
	require.True(t, result.IsNew)

	result = NewManager(dir, "users", false).Compare("users get", "body", data)
	assert.True(t, result.Passed, result.Message)
	assert.False(t, result.IsNew)
}

func TestManager_Compare_Mismatch(t *testing.T) {
	dir := t.TempDir()
	NewManager(dir, "users", true).Compare("users get", "", map[string]any{"name": "John"})

	result := NewManager(dir, "users", false).Compare("users get", "", map[string]any{"name": "Jane"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "mismatch")
	assert.Equal(t, map[string]any{"name": "John"}, result.Expected)
}

func TestManager_Compare_UpdateMismatch(t *testing.T) {
	dir := t.TempDir()
	NewManager(dir, "users", true).Compare("users get", "", "old")

	result := NewManager(dir, "users", true).Compare("users get", "", "new")
	assert.True(t, result.Passed)
	assert.True(t, result.WasUpdated)

	result = NewManager(dir, "users", false).Compare("users get", "", "new")
	assert.True(t, result.Passed)
}

func TestManager_Compare_MissingWithoutUpdate(t *testing.T) {
	manager := NewManager(t.TempDir(), "", false)

	result := manager.Compare("x", "y", 1)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "does not exist")
	assert.NoFileExists(t, manager.Path())
}

func TestManager_Compare_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	manager := NewManager(dir, "broken", false)
	require.NoError(t, os.MkdirAll(filepath.Dir(manager.Path()), 0755))
	require.NoError(t, os.WriteFile(manager.Path(), []byte("{not json"), 0644))

	result := manager.Compare("x", "", 1)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "failed to load snapshots")
}

func TestManager_Keys(t *testing.T) {
	manager := NewManager(t.TempDir(), "keys", true)
	manager.Compare("b example", "", 1)
	manager.Compare("a example", "second", 2)

	keys, err := manager.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a example::second", "b example"}, keys)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "ex::name", generateKey("ex", "name", nil))
	assert.Equal(t, "name", generateKey("", "name", nil))
	assert.Equal(t, "ex", generateKey("ex", "", nil))
	assert.Regexp(t, `^anon_[0-9a-f]{16}$`, generateKey("", "", 42))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(1, 1.0))
	assert.True(t, Equal(map[string]any{"a": []int{1, 2}}, map[string]any{"a": []any{1.0, 2.0}}))
	assert.False(t, Equal("1", 1))
}
