package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osbench/ops"
)

func newMountedDiskStore(t *testing.T) *diskStore {
	s := newDiskStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, s.Mkfs())
	require.NoError(t, s.Mount())
	require.NoError(t, s.CreateCollection("c"))
	t.Cleanup(func() {
		_ = s.Unmount()
	})
	return s
}

func TestDiskStoreMkfsRefusesNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover"), []byte("x"), 0644))

	s := newDiskStore(dir)
	err := s.Mkfs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
}

func TestDiskStoreMountRequiresMkfs(t *testing.T) {
	s := newDiskStore(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, s.Mount())
}

func TestDiskStoreWriteAt(t *testing.T) {
	s := newMountedDiskStore(t)

	tx := &Transaction{}
	tx.WriteAt("obj", 8, []byte("data"))
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	require.NoError(t, done.Wait())

	content, err := os.ReadFile(filepath.Join(s.dir, "c", "obj"))
	require.NoError(t, err)
	require.Len(t, content, 12)
	assert.Equal(t, []byte("data"), content[8:])
}

func TestDiskStoreRemoveIsIdempotent(t *testing.T) {
	s := newMountedDiskStore(t)

	tx := &Transaction{}
	tx.Remove("never-existed")
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	assert.NoError(t, done.Wait())
}

func TestDiskStoreSetAttr(t *testing.T) {
	s := newMountedDiskStore(t)

	tx := &Transaction{}
	tx.SetAttr("obj", "key", []byte("value"))
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	if err := done.Wait(); err != nil {
		t.Skipf("filesystem does not support xattrs: %v", err)
	}

	buf := make([]byte, 64)
	n, err := ops.Getxattr(filepath.Join(s.dir, "c", "obj"), "user.osbench.key", buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), buf[:n])
}
