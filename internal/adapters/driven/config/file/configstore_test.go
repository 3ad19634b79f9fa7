package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestSetAndGet(t *testing.T) {
	store, _ := testConfigStore(t)

	require.NoError(t, store.Set("gemini.api_key", "secret"))
	require.NoError(t, store.Set("chat.max_turns", 25))
	require.NoError(t, store.Set("verbose", true))

	assert.Equal(t, "secret", store.GetString("gemini.api_key"))
	assert.Equal(t, 25, store.GetInt("chat.max_turns"))
	assert.True(t, store.GetBool("verbose"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.False(t, store.GetBool("missing"))
}

func TestTypeMismatchReturnsZeroValue(t *testing.T) {
	store, _ := testConfigStore(t)

	require.NoError(t, store.Set("key", "not a number"))
	assert.Zero(t, store.GetInt("key"))
	assert.False(t, store.GetBool("key"))
}

func TestSetPersistsAcrossReopen(t *testing.T) {
	store, dir := testConfigStore(t)
	require.NoError(t, store.Set("github.token", "ghp_test"))
	require.NoError(t, store.Set("chat.session_capacity", 50))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", reopened.GetString("github.token"))
	// TOML integers come back as int64; GetInt normalizes.
	assert.Equal(t, 50, reopened.GetInt("chat.session_capacity"))
}

func TestLoad_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := "[gemini]\napi_key = \"secret\"\n\n[chat]\nmax_turns = 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "secret", store.GetString("gemini.api_key"))
	assert.Equal(t, 10, store.GetInt("chat.max_turns"))
}

func TestConfigFilePermissions(t *testing.T) {
	store, dir := testConfigStore(t)
	require.NoError(t, store.Set("gemini.api_key", "secret"))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestPath(t *testing.T) {
	store, dir := testConfigStore(t)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
