package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMountedMemStore(t *testing.T) *memStore {
	s := newMemStore()
	require.NoError(t, s.Mkfs())
	require.NoError(t, s.Mount())
	require.NoError(t, s.CreateCollection("c"))
	t.Cleanup(func() {
		// tests may have unmounted already
		_ = s.Unmount()
	})
	return s
}

func TestMemStoreWriteGrowsObject(t *testing.T) {
	s := newMountedMemStore(t)

	tx := &Transaction{}
	tx.WriteAt("obj", 4096, []byte{1, 2, 3, 4})
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	require.NoError(t, done.Wait())

	obj := s.object("c", "obj")
	require.NotNil(t, obj)
	assert.Len(t, obj.data, 4100)
	assert.Equal(t, []byte{1, 2, 3, 4}, obj.data[4096:])
	assert.EqualValues(t, 1, s.writeCount())
}

func TestMemStoreSetAttr(t *testing.T) {
	s := newMountedMemStore(t)

	tx := &Transaction{}
	tx.SetAttr("obj", "key", []byte("value"))
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	require.NoError(t, done.Wait())

	obj := s.object("c", "obj")
	require.NotNil(t, obj)
	assert.Equal(t, []byte("value"), obj.attrs["key"])
}

func TestMemStoreRemoveIsIdempotent(t *testing.T) {
	s := newMountedMemStore(t)

	tx := &Transaction{}
	tx.Remove("never-existed")
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	assert.NoError(t, done.Wait())
}

func TestMemStoreBatchOrderAndFinalCompletion(t *testing.T) {
	s := newMountedMemStore(t)

	first := &Transaction{}
	first.WriteAt("obj", 0, []byte("aaaa"))
	second := &Transaction{}
	second.WriteAt("obj", 2, []byte("bb"))
	done := NewCompletion()
	second.RegisterOnCommit(done)

	require.NoError(t, s.Queue("c", first, second))
	require.NoError(t, done.Wait())

	// both writes are committed once the final completion fires
	assert.Equal(t, []byte("aabb"), s.object("c", "obj").data)
}

func TestMemStoreQueueErrors(t *testing.T) {
	s := newMountedMemStore(t)

	tx := &Transaction{}
	tx.Touch("obj")
	assert.Error(t, s.Queue("nope", tx))

	require.NoError(t, s.Unmount())
	assert.Error(t, s.Queue("c", tx))
}

func TestMemStoreCommitFailureReachesCompletion(t *testing.T) {
	s := newMountedMemStore(t)
	s.failCommits(errors.New("injected"))

	tx := &Transaction{}
	tx.WriteAt("obj", 0, []byte("x"))
	done := NewCompletion()
	tx.RegisterOnCommit(done)
	require.NoError(t, s.Queue("c", tx))
	assert.EqualError(t, done.Wait(), "injected")
}
