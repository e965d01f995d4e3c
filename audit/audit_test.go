package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	return l
}

func waitForEntries(t *testing.T, l *Logger, n int) []Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := l.Recent(n + 1)
		require.NoError(t, err)
		if len(entries) >= n {
			return entries
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d audit entries", n)
	return nil
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLogger(t)
	defer l.Close()

	l.Record("admin", "velocity", "60", true)
	entries := waitForEntries(t, l, 1)

	require.Len(t, entries, 1)
	assert.Equal(t, "admin", entries[0].Username)
	assert.Equal(t, "velocity", entries[0].Command)
	assert.Equal(t, "60", entries[0].Value)
	assert.True(t, entries[0].Success)
	assert.NotEmpty(t, entries[0].ID)
	assert.WithinDuration(t, time.Now().UTC(), entries[0].LoggedAt, time.Minute)
}

func TestRecent_NewestFirst(t *testing.T) {
	l := openTestLogger(t)
	defer l.Close()

	l.Record("admin", "gate", "Open", true)
	waitForEntries(t, l, 1)
	l.Record("admin", "turbine", "Start", false)
	entries := waitForEntries(t, l, 2)

	require.Len(t, entries, 2)
	assert.Equal(t, "turbine", entries[0].Command)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "gate", entries[1].Command)
}

func TestRecord_AfterCloseIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	l, err := Open(path)
	require.NoError(t, err)

	l.Record("admin", "velocity", "60", true)
	require.NoError(t, l.Close())

	// A session finishing a command during shutdown must not crash the
	// process; the late entry is dropped.
	l.Record("admin", "velocity", "61", true)
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "60", entries[0].Value)
}

func TestClose_DrainsQueue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	l, err := Open(path)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		l.Record("operator", "velocity", "10", true)
	}
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(50)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
