package filelock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_LockUnlockRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	l := New(path)

	require.NoError(t, l.Lock())
	require.NoError(t, l.Unlock())
}

func TestLock_UnlockWithoutLockIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	l := New(path)
	assert.NoError(t, l.Unlock())
}

func TestLock_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "blob.bin")
	l := New(path)
	require.NoError(t, l.Lock())
	require.NoError(t, l.Unlock())
}
