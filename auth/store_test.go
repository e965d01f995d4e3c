package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsers(t *testing.T, content string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return NewStore(path)
}

func TestLoad(t *testing.T) {
	store := writeUsers(t, `{"admin":{"password":"admin123"},"operator":{"password":"hunter2"}}`)

	users, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"admin": "admin123", "operator": "hunter2"}, users)
}

func TestLoad_ProvisionsDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	store := NewStore(path)

	users, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "admin123", users["admin"])

	// The file must now exist on disk for the next load.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad_EmptyFileIsProvisioningError(t *testing.T) {
	store := writeUsers(t, `{}`)

	_, err := store.Load()
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	store := writeUsers(t, `not json`)

	_, err := store.Load()
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	store := writeUsers(t, `{"admin":{"password":"admin123"}}`)

	ok, err := store.Verify("admin", "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify("admin", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Verify("ghost", "admin123")
	require.NoError(t, err)
	assert.False(t, ok)
}
